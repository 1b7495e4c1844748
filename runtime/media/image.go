// Package media prepares screenshots and screen recordings for a generation
// request: it sniffs the content type, bounds image dimensions and encodes
// the result as a data URL.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "image/gif" // Register GIF decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Image MIME types accepted as screenshots.
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeWebP = "image/webp"
)

// Screenshot bounds. Full-page captures are tall, so height gets more room.
const (
	DefaultMaxWidth  = 2048
	DefaultMaxHeight = 8192
	jpegQuality      = 90

	// MaxDecodePixels caps the declared size of an image that is decoded
	// for downscaling.
	MaxDecodePixels = 64_000_000
)

// ErrImageTooLarge is returned when an image declares more than MaxDecodePixels.
var ErrImageTooLarge = errors.New("image too large")

// ImageLimits bounds the dimensions of a screenshot. Zero means no limit.
type ImageLimits struct {
	MaxWidth  int
	MaxHeight int
}

// DefaultImageLimits returns the limits used by the CLI.
func DefaultImageLimits() ImageLimits {
	return ImageLimits{MaxWidth: DefaultMaxWidth, MaxHeight: DefaultMaxHeight}
}

// fit scales w x h down into the limits, keeping the aspect ratio.
func (l ImageLimits) fit(w, h int) (int, int) {
	scale := 1.0
	if l.MaxWidth > 0 && w > l.MaxWidth {
		scale = float64(l.MaxWidth) / float64(w)
	}
	if l.MaxHeight > 0 && float64(h)*scale > float64(l.MaxHeight) {
		scale = float64(l.MaxHeight) / float64(h)
	}
	if scale >= 1 {
		return w, h
	}
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

// boundImage returns data unchanged when it fits the limits. Otherwise it
// decodes, downscales and re-encodes it: JPEG stays JPEG, everything else
// becomes PNG.
func boundImage(data []byte, mimeType string, limits ImageLimits) (*Input, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	w, h := limits.fit(cfg.Width, cfg.Height)
	if w == cfg.Width && h == cfg.Height {
		return &Input{MIMEType: mimeType, Data: data, Width: w, Height: h}, nil
	}

	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, MaxDecodePixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if mimeType == MIMETypeJPEG {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	} else {
		mimeType = MIMETypePNG
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &Input{MIMEType: mimeType, Data: buf.Bytes(), Width: w, Height: h, Resized: true}, nil
}
