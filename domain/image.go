package domain

import (
	"fmt"
	"io"
	"path"
)

const (
	// OwnerTypeUser expresses that an Image belongs to a User.
	OwnerTypeUser = "user"
	// MaxUploadSize determines the maximum filesize of an image to be uploaded.
	MaxUploadSize int64 = 5 << 20 // 5 Megabyte
)

// Image represents an uploaded image. Images are only stored as files in the filesystem
// and have no dedicated table in the database. The owner is the entity that the Image
// belongs to, which as of now is always a User (their profile picture). The relationship
// is resolved through the location of the stored file:
// an Image belonging to the User with ID 1 is stored in <base dir>/user/1/unique_name.jpeg.
// URL is what ends up in User.ImageURL; File holds the uploaded data until it is stored.
type Image struct {
	URL         string        `json:"url"`
	OwnerType   string        `json:"-"`
	OwnerID     int           `json:"-"`
	File        io.ReadSeeker `json:"-"`
	Filename    string        `json:"-"`
	Extension   string        `json:"-"`
	ContentType string        `json:"-"`
}

// ImageService is a set of methods to manipulate and work with the Image model and respective image files.
type ImageService interface {
	Create(img *Image) error
	ByOwner(ownerType string, ownerID int) ([]Image, error)
	Delete(img *Image) error
	DeleteAll(ownerType string, ownerID int) error
	// BaseDir is the directory the image files are stored in.
	BaseDir() string
}

// RelativePath returns the path of an image below the images base directory.
func (i *Image) RelativePath() string {
	return path.Join(i.OwnerType, fmt.Sprint(i.OwnerID), i.Filename)
}
