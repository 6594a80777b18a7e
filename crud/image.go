package crud

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"warbler/domain"
	"warbler/errs"
)

// ImagesURLPrefix is the URL path under which stored images are served.
const ImagesURLPrefix = "/images/"

// ImageService stores profile images on disk.
type ImageService struct {
	imageValidator
}

// imageValidator checks uploads before imageFS touches the disk.
type imageValidator struct {
	imageFS
}

// imageFS reads and writes image files below baseDir. Input is expected to be validated.
type imageFS struct {
	baseDir string
}

// NewImageService returns an instance of ImageService storing files below baseDir.
func NewImageService(baseDir string) *ImageService {
	return &ImageService{
		imageValidator{
			imageFS{
				baseDir: baseDir,
			},
		},
	}
}

var _ domain.ImageService = &ImageService{}

// BaseDir returns the directory images are stored in.
func (ifs *imageFS) BaseDir() string {
	return ifs.baseDir
}

// Create validates an upload and picks a fresh filename for it before writing it.
func (iv *imageValidator) Create(img *domain.Image) error {
	err := runImageValFns(img,
		iv.ownerValid,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize,
		iv.fileNameUnique,
	)
	if err != nil {
		return err
	}
	return iv.imageFS.Create(img)
}

// Delete makes sure the image is addressed by owner and filename before removing it.
func (iv *imageValidator) Delete(img *domain.Image) error {
	err := runImageValFns(img, iv.ownerValid, iv.fileNameValid)
	if err != nil {
		return err
	}
	return iv.imageFS.Delete(img)
}

// runImageValFns stops at the first check that fails.
func runImageValFns(img *domain.Image, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

type imageValFn func(img *domain.Image) error

func (iv *imageValidator) ownerValid(img *domain.Image) error {
	if img.OwnerType != domain.OwnerTypeUser || img.OwnerID <= 0 {
		return errs.Errorf(errs.EINVALID, "Image owner is invalid.")
	}
	return nil
}

// fileNameValid rejects names that would leave the owner's directory.
func (iv *imageValidator) fileNameValid(img *domain.Image) error {
	if img.Filename == "" || img.Filename != filepath.Base(img.Filename) || strings.HasPrefix(img.Filename, ".") {
		return errs.Errorf(errs.EINVALID, "Image filename is invalid.")
	}
	return nil
}

// belowMaxSize measures the upload by seeking to its end.
func (iv *imageValidator) belowMaxSize(img *domain.Image) error {
	end, err := img.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err := resetFilePointer(img); err != nil {
		return err
	}
	if end > domain.MaxUploadSize {
		return errs.Errorf(errs.EINVALID,
			"Image %s exceeds upload size limit of %dMB.", img.Filename, domain.MaxUploadSize>>20)
	}
	return nil
}

// contentTypeValid sniffs the first 512 bytes; only png and jpeg pass.
func (iv *imageValidator) contentTypeValid(img *domain.Image) error {
	if img.File == nil {
		return errs.Errorf(errs.EINVALID, "Image %s is empty.", img.Filename)
	}
	head := make([]byte, 512)
	n, err := img.File.Read(head)
	if err != nil && err != io.EOF {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	contentType := http.DetectContentType(head[:n])
	switch contentType {
	case "image/jpeg", "image/png":
	default:
		return errs.Errorf(errs.EINVALID,
			"Image %s has an invalid content type, must be image/jpeg or image/png.", img.Filename)
	}
	img.ContentType = contentType
	return nil
}

// contentTypeExtensionMatch rejects e.g. a png uploaded as photo.jpeg.
func (iv *imageValidator) contentTypeExtensionMatch(img *domain.Image) error {
	if strings.TrimPrefix(img.ContentType, "image/") != strings.TrimPrefix(img.Extension, ".") {
		return errs.Errorf(errs.EINVALID,
			"Image %s content type %s does not match extension %s.", img.Filename, img.ContentType, img.Extension)
	}
	return nil
}

// extensionValid accepts .png, .jpg and .jpeg, and stores .jpg as .jpeg.
func (iv *imageValidator) extensionValid(img *domain.Image) error {
	switch ext := strings.ToLower(filepath.Ext(img.Filename)); ext {
	case ".png", ".jpeg":
		img.Extension = ext
	case ".jpg":
		img.Extension = ".jpeg"
	default:
		return errs.Errorf(errs.EINVALID, "Image %s has an invalid extension, must be .jpeg or .png.", img.Filename)
	}
	return nil
}

// fileNameUnique replaces the image's name with a random one.
func (iv *imageValidator) fileNameUnique(img *domain.Image) error {
	img.Filename = uuid.NewString() + img.Extension
	return nil
}

// resetFilePointer rewinds the upload after a check has read from it.
func resetFilePointer(img *domain.Image) error {
	_, err := img.File.Seek(0, io.SeekStart)
	return err
}

// Create writes the image below <base dir>/<owner type>/<owner id>/ and sets its URL.
// Images have no table in the database; the users table holds the URL of the profile image.
func (ifs *imageFS) Create(img *domain.Image) error {
	dir, err := ifs.mkImageDir(img.OwnerType, img.OwnerID)
	if err != nil {
		return err
	}
	name := filepath.Join(dir, img.Filename)
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, img.File)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Don't leave a partial file behind.
		_ = os.Remove(name)
		return err
	}
	img.URL = imageURL(img)
	return nil
}

// ByOwner returns the images stored for an owner, sorted by filename.
func (ifs *imageFS) ByOwner(ownerType string, ownerID int) ([]domain.Image, error) {
	entries, err := os.ReadDir(ifs.imageDir(ownerType, ownerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ret []domain.Image
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		img := domain.Image{
			Filename:  e.Name(),
			Extension: filepath.Ext(e.Name()),
			OwnerType: ownerType,
			OwnerID:   ownerID,
		}
		img.URL = imageURL(&img)
		ret = append(ret, img)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Filename < ret[j].Filename })
	return ret, nil
}

// Delete removes one image file.
func (ifs *imageFS) Delete(img *domain.Image) error {
	err := os.Remove(filepath.Join(ifs.baseDir, filepath.FromSlash(img.RelativePath())))
	if os.IsNotExist(err) {
		return errs.Errorf(errs.ENOTFOUND, "The image does not exist.")
	}
	return err
}

// DeleteAll removes the directory holding all images of an owner.
func (ifs *imageFS) DeleteAll(ownerType string, ownerID int) error {
	return os.RemoveAll(ifs.imageDir(ownerType, ownerID))
}

// mkImageDir creates the directory for an owner's images, if it doesn't exist yet.
func (ifs *imageFS) mkImageDir(ownerType string, ownerID int) (string, error) {
	dir := ifs.imageDir(ownerType, ownerID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// imageDir results in directories like <base dir>/user/1.
func (ifs *imageFS) imageDir(ownerType string, ownerID int) string {
	return filepath.Join(ifs.baseDir, ownerType, fmt.Sprint(ownerID))
}

func imageURL(img *domain.Image) string {
	return path.Join(ImagesURLPrefix, img.RelativePath())
}
