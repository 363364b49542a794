package blob

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes caps decoded post images.
const MaxImageBytes = 5 << 20

var (
	ErrImageEncoding = errors.New("image is not valid base64")
	ErrImageTooLarge = errors.New("image exceeds 5 MiB")
	ErrImageType     = errors.New("image must be png, jpeg, gif or webp")
)

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload ready to store.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeImage accepts raw base64 or a data URL. The content type is sniffed
// from the bytes; any declared type is ignored.
func DecodeImage(encoded string) (Image, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 {
			return Image{}, ErrImageEncoding
		}
		encoded = encoded[comma+1:]
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxImageBytes+3 {
		return Image{}, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Image{}, ErrImageEncoding
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return Image{}, ErrImageType
	}
	return Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

// PostImageKey returns a fresh object key for a post image.
func PostImageKey(img Image) string {
	return "posts/" + uuid.NewString() + "." + img.Ext
}
