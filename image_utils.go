package lblreview

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
)

// decodeImageConfig opens the file at path and returns the results of
// image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// FitForDisplay downsamples img so that neither side exceeds maxSide, preserving
// the aspect ratio. Images that already fit, or a maxSide of zero, return img
// unchanged. Box outlines and class names have been burned in by the time this
// runs, so scaling the rendered image does not touch any label geometry.
func FitForDisplay(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	if maxSide <= 0 || (bounds.Dx() <= maxSide && bounds.Dy() <= maxSide) {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}
