package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers webp with image.Decode
)

const jpegQuality = 85

var ErrEmptyImage = errors.New("assets: image has no pixels")

// decoded is an image ready to embed: JPEG bytes plus the native size
// (after EXIF orientation) that layout works from.
type decoded struct {
	Data   []byte
	Width  int
	Height int
}

// decodeImage decodes raw bytes, downsamples anything larger than maxEdge
// on its long side and re-encodes to JPEG over a white background so
// transparent PNGs do not come out black.
func decodeImage(raw []byte, maxEdge int) (decoded, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return decoded{}, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return decoded{}, ErrEmptyImage
	}

	var out image.Image = img
	if maxEdge > 0 && (w > maxEdge || h > maxEdge) {
		out = imaging.Fit(out, maxEdge, maxEdge, imaging.Lanczos)
	}
	ob := out.Bounds()
	flat := imaging.Overlay(imaging.New(ob.Dx(), ob.Dy(), color.White), out, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return decoded{}, fmt.Errorf("encode: %w", err)
	}
	return decoded{Data: buf.Bytes(), Width: w, Height: h}, nil
}
