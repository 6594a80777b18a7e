package crud

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/domain"
	"warbler/errs"
)

// pngHeader is enough of a PNG file for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newUpload(name string, data []byte) *domain.Image {
	return &domain.Image{
		OwnerType: domain.OwnerTypeUser,
		OwnerID:   1,
		Filename:  name,
		File:      bytes.NewReader(data),
	}
}

func TestImageService_Create(t *testing.T) {
	dir := t.TempDir()
	is := NewImageService(dir)

	assert.Equal(t, dir, is.BaseDir())

	img := newUpload("avatar.PNG", pngHeader)
	require.NoError(t, is.Create(img))
	assert.Equal(t, ".png", img.Extension)
	assert.Equal(t, "image/png", img.ContentType)
	assert.NotEqual(t, "avatar.PNG", img.Filename)
	assert.True(t, strings.HasPrefix(img.URL, "/images/user/1/"))

	stored, err := os.ReadFile(filepath.Join(dir, "user", "1", img.Filename))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	imgs, err := is.ByOwner(domain.OwnerTypeUser, 1)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, img.URL, imgs[0].URL)
}

func TestImageService_CreateValidation(t *testing.T) {
	is := NewImageService(t.TempDir())
	tests := []struct {
		name string
		img  *domain.Image
	}{
		{"bad extension", newUpload("avatar.gif", pngHeader)},
		{"not an image", newUpload("avatar.png", []byte("hello, world"))},
		{"extension mismatch", newUpload("avatar.jpg", pngHeader)},
		{"too large", newUpload("avatar.png", append(append([]byte{}, pngHeader...), make([]byte, domain.MaxUploadSize)...))},
		{"no owner", &domain.Image{OwnerType: domain.OwnerTypeUser, Filename: "avatar.png", File: bytes.NewReader(pngHeader)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := is.Create(tt.img)
			assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
		})
	}
	imgs, err := is.ByOwner(domain.OwnerTypeUser, 1)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestImageService_Delete(t *testing.T) {
	is := NewImageService(t.TempDir())
	first := newUpload("a.png", pngHeader)
	second := newUpload("b.png", pngHeader)
	require.NoError(t, is.Create(first))
	require.NoError(t, is.Create(second))

	require.NoError(t, is.Delete(first))
	imgs, err := is.ByOwner(domain.OwnerTypeUser, 1)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, second.Filename, imgs[0].Filename)

	err = is.Delete(first)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))

	err = is.Delete(&domain.Image{OwnerType: domain.OwnerTypeUser, OwnerID: 1, Filename: "../../x.png"})
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	require.NoError(t, is.DeleteAll(domain.OwnerTypeUser, 1))
	imgs, err = is.ByOwner(domain.OwnerTypeUser, 1)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

// brokenUpload fails every read, like a client dropping the connection mid-upload.
type brokenUpload struct{}

func (brokenUpload) Read([]byte) (int, error)       { return 0, errors.New("connection reset") }
func (brokenUpload) Seek(int64, int) (int64, error) { return 0, nil }

func TestImageFS_CreateFailedWrite(t *testing.T) {
	dir := t.TempDir()
	ifs := &imageFS{baseDir: dir}
	img := &domain.Image{
		OwnerType: domain.OwnerTypeUser,
		OwnerID:   1,
		File:      brokenUpload{},
		Filename:  "broken.png",
		Extension: ".png",
	}

	err := ifs.Create(img)
	require.Error(t, err)
	assert.Empty(t, img.URL)

	entries, err := os.ReadDir(filepath.Join(dir, domain.OwnerTypeUser, "1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
