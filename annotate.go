package lblreview

// Rendering of detection overlays onto images.

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// The palette has only four entries: class ids alias modulo 4. Growing the
// palette would silently change the color assigned to every class id >= 4 in
// previously reviewed datasets.
var detectionPalette = [4]color.NRGBA{
	{R: 255, A: 255},         // red
	{G: 255, A: 255},         // green
	{B: 255, A: 255},         // blue
	{R: 255, G: 255, A: 255}, // yellow
}

const (
	strokeWidth  = 4  // Box outline thickness in pixels.
	labelOffsetY = 20 // The class name is anchored this many pixels above the box.

	// The ascent of the 7x13 bitmap face. Drawing the baseline at anchor+ascent
	// puts the top of the glyphs at the anchor.
	labelFontAscent = 11
)

// DrawDetections draws the detection boxes and their class names onto a copy of
// img and returns the copy. The input image is never modified.
//
// The copy is an 8-bit RGBA canvas regardless of the input color model. Boxes are
// drawn at their stored corners without clamping; geometry outside the canvas is
// silently clipped. The class name is anchored above the top-left box corner and
// may extend past the top edge.
func DrawDetections(img image.Image, detections []Detection, catalog ClassCatalog) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(strokeWidth)

	for _, d := range detections {
		dc.SetColor(detectionPalette[paletteIndex(d.ClassID)])

		x1 := float64(d.Coords[0])
		y1 := float64(d.Coords[1])
		dc.DrawRectangle(x1, y1, float64(d.Width()), float64(d.Height()))
		dc.Stroke()

		dc.DrawString(catalog.Name(d.ClassID), x1, y1-labelOffsetY+labelFontAscent)
	}

	return dc.Image()
}

// paletteIndex folds a class id onto the 4-entry palette. Negative ids (possible
// with malformed class fields) fold onto the same positive range.
func paletteIndex(classID int) int {
	i := classID % len(detectionPalette)
	if i < 0 {
		i += len(detectionPalette)
	}
	return i
}

// EncodePNG serializes an image to PNG bytes for redisplay.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
