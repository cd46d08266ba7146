package filehandler

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultAnalysisMaxDimension is the longest edge sent to the Generator.
const DefaultAnalysisMaxDimension = 512

// DefaultAnalysisJPEGQuality is the JPEG quality used for analysis payloads.
const DefaultAnalysisJPEGQuality = 50

// AnalysisMIMEType is the MIME type of every payload produced by EncodeForAnalysis.
const AnalysisMIMEType = "image/jpeg"

// EncodeForAnalysis decodes a photo, downscales it so neither edge exceeds
// maxDimension (aspect ratio preserved, never upscaled) and re-encodes it as
// JPEG at the given quality. Transparent regions are flattened onto white.
func EncodeForAnalysis(data []byte, maxDimension, quality int) ([]byte, error) {
	if maxDimension <= 0 {
		return nil, fmt.Errorf("max dimension must be positive, got %d", maxDimension)
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within 1..100, got %d", quality)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image has empty bounds")
	}

	newWidth, newHeight := ScaledDimensions(width, height, maxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	log.Debug().
		Str("source_format", format).
		Int("original_width", width).
		Int("original_height", height).
		Int("width", newWidth).
		Int("height", newHeight).
		Int("input_size", len(data)).
		Int("output_size", buf.Len()).
		Msg("Photo encoded for analysis")

	return buf.Bytes(), nil
}

// ScaledDimensions fits width x height inside a maxDimension square without
// upscaling. Each resulting edge is at least one pixel.
func ScaledDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxDimension
		newHeight = height * maxDimension / width
	} else {
		newHeight = maxDimension
		newWidth = width * maxDimension / height
	}

	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight
}
