package extraction

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accueil/internal/provider"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareImageSmallJPEGPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(64, 48), nil))

	out, err := PrepareImage(buf.Bytes(), 2048)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.MimeType)
	assert.Equal(t, buf.Bytes(), out.Data)
}

func TestPrepareImageConvertsPNGToJPEG(t *testing.T) {
	out, err := PrepareImage(encodePNG(t, solid(40, 30)), 0)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.MimeType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestPrepareImageDownscalesKeepingAspect(t *testing.T) {
	out, err := PrepareImage(encodePNG(t, solid(400, 100)), 200)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestPrepareImageDownscalesPortrait(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(100, 300), nil))

	out, err := PrepareImage(buf.Bytes(), 150)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestPrepareImageAcceptsGIF(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 10, 10), color.Palette{color.White, color.Black})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, pal, nil))

	out, err := PrepareImage(buf.Bytes(), 2048)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", SniffMimeType(out.Data))
}

func TestPrepareImageRejectsBadInput(t *testing.T) {
	_, err := PrepareImage(nil, 0)
	assert.Equal(t, provider.ErrorBadData, provider.GetCategory(err))

	_, err = PrepareImage([]byte("definitely not an image"), 0)
	assert.Equal(t, provider.ErrorBadData, provider.GetCategory(err))
}
