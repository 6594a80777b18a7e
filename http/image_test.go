package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func (c *client) upload(path, field, filename string, data []byte) (*http.Response, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(c.t, err)
	_, err = fw.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func TestUploadProfileImage(t *testing.T) {
	app := newApp(t)
	app.mustSignup("alice", "password1")

	resp, _ := app.client().upload("/users/profile/image", "image", "me.png", pngHeader)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c := app.client()
	c.login("alice", "password1")

	resp, _ = c.upload("/users/profile/image", "image", "me.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := c.upload("/users/profile/image", "image", "me.png", pngHeader)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var first domain.User
	decode(t, body, &first)
	assert.True(t, strings.HasPrefix(first.ImageURL, "/images/user/"), first.ImageURL)

	resp, body = c.get(first.ImageURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, pngHeader, body)

	// A new upload replaces the old file.
	resp, body = c.upload("/users/profile/image", "image", "again.png", pngHeader)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second domain.User
	decode(t, body, &second)
	assert.NotEqual(t, first.ImageURL, second.ImageURL)

	resp, _ = c.get(first.ImageURL)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
