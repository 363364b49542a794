package blob

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestDecodeImageRawBase64(t *testing.T) {
	img, err := DecodeImage(pixelPNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
	assert.NotEmpty(t, img.Data)
}

func TestDecodeImageDataURLIgnoresDeclaredType(t *testing.T) {
	img, err := DecodeImage("data:image/gif;base64," + pixelPNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestDecodeImageRejects(t *testing.T) {
	_, err := DecodeImage("%%%not base64%%%")
	assert.ErrorIs(t, err, ErrImageEncoding)

	_, err = DecodeImage(base64.StdEncoding.EncodeToString([]byte("plain text, not an image")))
	assert.ErrorIs(t, err, ErrImageType)

	_, err = DecodeImage("data:image/png;base64")
	assert.ErrorIs(t, err, ErrImageEncoding)

	huge := base64.StdEncoding.EncodeToString(make([]byte, MaxImageBytes+1))
	_, err = DecodeImage(huge)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestPostImageKey(t *testing.T) {
	key := PostImageKey(Image{Ext: "webp"})
	assert.True(t, strings.HasPrefix(key, "posts/"))
	assert.True(t, strings.HasSuffix(key, ".webp"))
	assert.NotEqual(t, key, PostImageKey(Image{Ext: "webp"}))
}
