package lblreview

// The in-memory representation of decoded object detections.

// Detection is a single decoded object detection: a class id and a bounding box in
// absolute pixel coordinates.
//
// The coordinates are taken from the label file as-is. Malformed input can produce
// boxes with x1 > x2 or y1 > y2, or corners outside the image; consumers must
// tolerate such boxes rather than reject them.
type Detection struct {
	ClassID int
	Coords  [4]int // x1, y1, x2, y2 offsets from the top-left corner.
}

// Width is the box width from d.Coords. May be negative for degenerate input.
func (d Detection) Width() int {
	return d.Coords[2] - d.Coords[0]
}

// Height is the box height from d.Coords. May be negative for degenerate input.
func (d Detection) Height() int {
	return d.Coords[3] - d.Coords[1]
}
