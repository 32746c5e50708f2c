package service

import (
	"fmt"
	"strings"

	"github.com/h2non/bimg"
)

// ImagePipeline turns user-uploaded image bytes into the canonical
// stored representations: a bounded full-size PNG and an independently
// derived thumbnail PNG. It uses bimg (Go bindings for libvips) — a C
// library that's extremely fast at image manipulation. The trade-off:
// requires libvips as a system dependency.
//
// Every stage is a pure function of its input; persistence happens in
// the caller. The pipeline never retains the original encoding — PNG is
// the only format that leaves it.
type ImagePipeline struct {
	maxDimension   int
	thumbDimension int
}

// NewImagePipeline creates a pipeline with the given full-size and
// thumbnail bounds (longest edge, in pixels).
func NewImagePipeline(maxDimension, thumbDimension int) *ImagePipeline {
	return &ImagePipeline{
		maxDimension:   maxDimension,
		thumbDimension: thumbDimension,
	}
}

// Process runs the upload path: decode → normalize → resize → encode,
// plus the thumbnail derivation. The thumbnail is scaled from the
// normalized source, not from the already-resized full image, so it
// doesn't accumulate two rounds of resampling loss.
func (p *ImagePipeline) Process(raw []byte, userAgent string) (full, thumbnail []byte, err error) {
	if err := checkDecodable(raw); err != nil {
		return nil, nil, err
	}

	normalized, err := normalize(raw, userAgent)
	if err != nil {
		return nil, nil, err
	}

	full, err = resizeToBound(normalized, p.maxDimension, p.maxDimension)
	if err != nil {
		return nil, nil, fmt.Errorf("resizing image: %w", err)
	}

	thumbnail, err = resizeToBound(normalized, p.thumbDimension, p.thumbDimension)
	if err != nil {
		return nil, nil, fmt.Errorf("deriving thumbnail: %w", err)
	}

	return full, thumbnail, nil
}

// Crop extracts a sub-rectangle from a stored image and re-derives the
// thumbnail from the cropped result.
//
// Validation: zero-size crops and origins outside the image are
// rejected. An extent that hangs over the edge is NOT an error — the
// effective width/height are clamped to what the image can supply.
func (p *ImagePipeline) Crop(stored []byte, x, y, w, h int) (full, thumbnail []byte, err error) {
	if w <= 0 || h <= 0 {
		return nil, nil, fmt.Errorf("crop size must be non-zero: %w", ErrInvalidInput)
	}

	size, err := bimg.NewImage(stored).Size()
	if err != nil {
		return nil, nil, fmt.Errorf("reading image dimensions: %w", err)
	}
	if x < 0 || y < 0 || x >= size.Width || y >= size.Height {
		return nil, nil, fmt.Errorf("crop origin out of bounds: %w", ErrInvalidInput)
	}

	// Clamp, don't reject: an oversized selection is truncated to fit.
	cw := min(w, size.Width-x)
	ch := min(h, size.Height-y)

	cropped, err := bimg.NewImage(stored).Extract(y, x, cw, ch)
	if err != nil {
		return nil, nil, fmt.Errorf("cropping image: %w", err)
	}

	full, err = encodePNG(cropped)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding cropped image: %w", err)
	}

	thumbnail, err = resizeToBound(cropped, p.thumbDimension, p.thumbDimension)
	if err != nil {
		return nil, nil, fmt.Errorf("deriving thumbnail: %w", err)
	}

	return full, thumbnail, nil
}

// checkDecodable detects the source format from content — never from a
// user-declared extension or MIME field.
func checkDecodable(raw []byte) error {
	t := bimg.DetermineImageType(raw)
	if t == bimg.UNKNOWN || !bimg.IsTypeSupported(t) {
		return fmt.Errorf("unrecognized or corrupt image: %w", ErrInvalidInput)
	}
	return nil
}

// normalize applies the capture-device orientation workaround: photos
// taken on an iPhone arrive rotated, so we counter-rotate when the
// client's agent string says so. This is a heuristic, not EXIF-based
// correction.
// TODO: replace with real EXIF orientation handling (libvips exposes it
// via AutoRotate) and drop the agent sniffing.
func normalize(raw []byte, userAgent string) ([]byte, error) {
	if !strings.Contains(userAgent, "iPhone") {
		return raw, nil
	}
	rotated, err := bimg.NewImage(raw).Rotate(bimg.D90)
	if err != nil {
		return nil, fmt.Errorf("rotating image: %w", err)
	}
	return rotated, nil
}

// resizeToBound scales the image so neither dimension exceeds the
// bound, preserving aspect ratio with libvips' high-quality resampling.
// It never upscales: a source already within the bound is only
// re-encoded.
func resizeToBound(raw []byte, maxW, maxH int) ([]byte, error) {
	size, err := bimg.NewImage(raw).Size()
	if err != nil {
		return nil, fmt.Errorf("reading image dimensions: %w", err)
	}

	if size.Width <= maxW && size.Height <= maxH {
		return encodePNG(raw)
	}

	scaleW := float64(maxW) / float64(size.Width)
	scaleH := float64(maxH) / float64(size.Height)
	scale := min(scaleW, scaleH)

	targetW := max(1, int(float64(size.Width)*scale+0.5))
	targetH := max(1, int(float64(size.Height)*scale+0.5))

	// Force pins the exact computed dimensions — we've already done the
	// aspect-ratio math, so bimg must not second-guess it.
	return bimg.NewImage(raw).Process(bimg.Options{
		Width:          targetW,
		Height:         targetH,
		Force:          true,
		Type:           bimg.PNG,
		Interpretation: bimg.InterpretationSRGB,
	})
}

// encodePNG serializes to the canonical lossless format without
// touching geometry.
func encodePNG(raw []byte) ([]byte, error) {
	if bimg.DetermineImageType(raw) == bimg.PNG {
		return raw, nil
	}
	return bimg.NewImage(raw).Process(bimg.Options{Type: bimg.PNG})
}
