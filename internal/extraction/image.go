package extraction

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"accueil/internal/provider"
)

const (
	// MaxPixels rejects images whose header claims more pixels than this.
	MaxPixels = 60_000_000

	jpegQuality = 85
)

// PrepareImage decodes an uploaded picture and re-encodes it as JPEG,
// downscaling so neither side exceeds maxDimension (0 keeps the size).
// JPEG input already within bounds is passed through unchanged.
func PrepareImage(data []byte, maxDimension int) (Image, error) {
	if len(data) == 0 {
		return Image{}, provider.NewError(provider.ErrorBadData, ProviderID, "image is empty", nil)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, provider.NewError(provider.ErrorBadData, ProviderID, "unreadable image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return Image{}, provider.NewError(provider.ErrorBadData, ProviderID, "image dimensions out of range", nil)
	}
	fits := maxDimension <= 0 || (cfg.Width <= maxDimension && cfg.Height <= maxDimension)
	if format == "jpeg" && fits {
		return Image{Data: data, MimeType: "image/jpeg"}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, provider.NewError(provider.ErrorBadData, ProviderID, "unreadable image", err)
	}
	if !fits {
		src = downscale(src, maxDimension)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(src), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, provider.NewError(provider.ErrorInternal, ProviderID, "jpeg encoding failed", err)
	}
	return Image{Data: buf.Bytes(), MimeType: "image/jpeg"}, nil
}

// SniffMimeType reports the content type of an encoded image.
func SniffMimeType(data []byte) string {
	return http.DetectContentType(data)
}

func downscale(src image.Image, maxDimension int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= h {
		h = max(1, h*maxDimension/w)
		w = maxDimension
	} else {
		w = max(1, w*maxDimension/h)
		h = maxDimension
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// flatten composites transparent pixels onto white; JPEG has no alpha.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
