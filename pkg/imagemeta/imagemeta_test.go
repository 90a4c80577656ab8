package imagemeta

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	errorz "github.com/vinceerrol/vuefrontend/internal/errors"
)

func TestProbePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480))))

	info, err := Probe(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 640, info.Width)
	require.Equal(t, 480, info.Height)
	require.Equal(t, "image/png", info.MIME)
}

func TestProbeJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 16)), nil))

	info, err := Probe(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 32, info.Width)
	require.Equal(t, 16, info.Height)
	require.Equal(t, "image/jpeg", info.MIME)
}

func TestProbeRejectsNonImage(t *testing.T) {
	_, err := Probe([]byte("<html>not an image</html>"))
	require.ErrorIs(t, err, errorz.ErrUnsupportedImageType)
}

func TestProbeRejectsUnsupportedFormat(t *testing.T) {
	// Valid GIF header; the editor only produces JPEG and PNG.
	_, err := Probe([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00"))
	require.ErrorIs(t, err, errorz.ErrUnsupportedImageType)
}
