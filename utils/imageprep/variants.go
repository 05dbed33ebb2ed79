// Package imageprep derives the preprocessed renditions of a scanned page
// that are each run through OCR.
package imageprep

import (
	"image"

	"github.com/disintegration/imaging"
)

// MinLongSide is the length the longer side of every variant is upscaled to.
const MinLongSide = 1200

const (
	blurSigma         = 1.0
	bilateralRadius   = 2
	bilateralColor    = 25.0
	bilateralSpace    = 2.0
	thresholdBlock    = 15
	thresholdConstant = 10
)

// Variant is one preprocessed rendition of the input image.
type Variant struct {
	Name  string
	Image image.Image
}

// Options toggles the optional variants.
type Options struct {
	// AdaptiveThreshold adds a bilateral-smoothed, locally thresholded variant.
	AdaptiveThreshold bool
}

// Build returns the variants in their fixed order: grayscale, median,
// blurred, inverted and, when enabled, thresholded.
func Build(img image.Image, opts Options) []Variant {
	gray := Upscale(imaging.Grayscale(img), MinLongSide)

	variants := []Variant{
		{Name: "gray", Image: gray},
		{Name: "median", Image: Median3x3(gray)},
		{Name: "blur", Image: imaging.Blur(gray, blurSigma)},
		{Name: "inverted", Image: imaging.Invert(gray)},
	}
	if opts.AdaptiveThreshold {
		smoothed := Bilateral(gray, bilateralRadius, bilateralColor, bilateralSpace)
		variants = append(variants, Variant{
			Name:  "threshold",
			Image: AdaptiveMeanThreshold(smoothed, thresholdBlock, thresholdConstant),
		})
	}
	return variants
}

// Upscale enlarges img so its longer side is at least minSide, keeping the
// aspect ratio. Larger images are returned unchanged.
func Upscale(img *image.NRGBA, minSide int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || w >= minSide || h >= minSide {
		return img
	}
	if w >= h {
		return imaging.Resize(img, minSide, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, minSide, imaging.Lanczos)
}

// Grayscale converts img for single-pass recognition of rendered pages.
func Grayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}
