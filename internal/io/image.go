package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// jpegQuality is used for every JPEG this package encodes.
const jpegQuality = 90

// CoverOptions controls cover art pre-processing.
type CoverOptions struct {
	// MaxSize bounds width and height in pixels. Zero keeps the size.
	MaxSize int

	// ConvertToJPEG re-encodes the cover as JPEG.
	ConvertToJPEG bool
}

// ImageService provides image processing operations for cover art.
//
// ImageService is used to:
//   - Shrink covers to fit maximum dimensions before embedding them
//   - Convert covers to JPEG format (for better compatibility)
//
// Example usage:
//
//	svc := NewImageService()
//
//	// Shrink to at most 1400x1400 and convert to JPEG
//	cover, err := svc.PrepareCover(ctx, imageData, CoverOptions{MaxSize: 1400, ConvertToJPEG: true})
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// PrepareCover applies opts to encoded image data.
//
// Data is returned unchanged when no option applies, so covers that already
// fit are not re-encoded. Resized PNG covers stay PNG unless ConvertToJPEG
// is set.
func (s *ImageService) PrepareCover(ctx context.Context, data []byte, opts CoverOptions) ([]byte, error) {
	if opts.MaxSize <= 0 && !opts.ConvertToJPEG {
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resized := false
	if opts.MaxSize > 0 {
		img, resized = fit(img, opts.MaxSize, opts.MaxSize)
	}

	switch {
	case opts.ConvertToJPEG && format != "jpeg":
		return encodeJPEG(flatten(img))
	case !resized && (format == "jpeg" || !opts.ConvertToJPEG):
		return data, nil
	case format == "png" && !opts.ConvertToJPEG:
		return encodePNG(img)
	default:
		return encodeJPEG(flatten(img))
	}
}

// fit scales img down to fit maxWidth x maxHeight. It reports whether the
// image was scaled.
func fit(img image.Image, maxWidth, maxHeight int) (image.Image, bool) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth && height <= maxHeight {
		return img, false
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		width = max(1, int(float64(maxHeight)*ratio))
		height = maxHeight
	} else {
		// Width is the limiting factor
		height = max(1, int(float64(maxWidth)/ratio))
		width = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, true
}

// flatten paints img over a white background.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
