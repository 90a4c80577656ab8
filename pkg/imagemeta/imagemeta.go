// Package imagemeta probes uploaded image bytes for their type and pixel
// dimensions without decoding the full image.
package imagemeta

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	errorz "github.com/vinceerrol/vuefrontend/internal/errors"
)

type Info struct {
	Width  int
	Height int
	MIME   string
}

// Probe sniffs the content type and reads the image header. Only JPEG and PNG
// uploads are accepted, matching what the map editor produces.
func Probe(data []byte) (Info, error) {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/jpeg", "image/png":
	default:
		return Info{}, errors.Join(errorz.ErrUnsupportedImageType, errors.New(mime))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, errors.Join(errorz.ErrUnsupportedImageType, err)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, MIME: mime}, nil
}
