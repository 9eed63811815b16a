package lblreview

// YOLO label format specific functionality.
//
// A YOLO label file holds one detection per line, as five whitespace-separated
// numeric fields: classID xCenter yCenter width height, with the geometry
// normalized to [0, 1] relative to the image dimensions.

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedLineError reports a label line that cannot be parsed. Parsing is strict:
// one malformed line fails the whole file, so no partial detection list is ever
// returned.
type MalformedLineError struct {
	Line  int    // 1-based line number within the label file.
	Text  string // The offending line.
	Cause string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed label line %d %q: %s", e.Line, e.Text, e.Cause)
}

// ParseYOLO parses YOLO label content into pixel-space detections for an image of
// the given dimensions.
//
// Whitespace-only lines are skipped, so content with a trailing newline parses
// cleanly. Any other line must hold exactly five numeric fields or the whole call
// fails with a MalformedLineError. Empty content yields an empty result, not an
// error. The output preserves the input line order.
//
// Pixel corners are computed with truncation toward zero, matching how existing
// reviewed datasets were produced.
func ParseYOLO(content string, imgWidth, imgHeight int) ([]Detection, error) {
	var detections []Detection
	for i, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 {
			return nil, &MalformedLineError{
				Line:  i + 1,
				Text:  strings.TrimSpace(line),
				Cause: fmt.Sprintf("expected 5 fields, found %d", len(fields)),
			}
		}

		var v [5]float64
		for j, field := range fields {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, &MalformedLineError{
					Line:  i + 1,
					Text:  strings.TrimSpace(line),
					Cause: fmt.Sprintf("invalid numeric token %q", field),
				}
			}
			v[j] = val
		}

		cx := v[1] * float64(imgWidth)
		cy := v[2] * float64(imgHeight)
		w := v[3] * float64(imgWidth)
		h := v[4] * float64(imgHeight)
		detections = append(detections, Detection{
			ClassID: int(v[0]),
			Coords: [4]int{
				int(cx - w/2),
				int(cy - h/2),
				int(cx + w/2),
				int(cy + h/2),
			},
		})
	}

	return detections, nil
}

// FormatYOLO encodes pixel-space detections as normalized YOLO label lines for an
// image of the given dimensions.
//
// Because ParseYOLO truncates when converting to pixels, a parse/format round trip
// reproduces each box corner only to within one pixel.
func FormatYOLO(detections []Detection, imgWidth, imgHeight int) string {
	var b strings.Builder
	for _, d := range detections {
		cx := (float64(d.Coords[0]) + float64(d.Coords[2])) / 2 / float64(imgWidth)
		cy := (float64(d.Coords[1]) + float64(d.Coords[3])) / 2 / float64(imgHeight)
		w := float64(d.Width()) / float64(imgWidth)
		h := float64(d.Height()) / float64(imgHeight)
		fmt.Fprintf(&b, "%d %.6f %.6f %.6f %.6f\n", d.ClassID, cx, cy, w, h)
	}
	return b.String()
}
