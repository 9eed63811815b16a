package lblreview

// ReviewSession wires the label decoder, the annotator, the queue and the
// persister together into the state of one review pass, owned by the calling
// shell.

import (
	"bytes"
	"fmt"
	"image"
	"log"
)

// ReviewSession holds everything one reviewer is working on: the pending queue,
// the class catalog, uploaded label files waiting for their image, and the
// persister that sorts submitted files into the validation folders.
//
// ReviewSession is not safe for concurrent use; the shell must serialize access.
type ReviewSession struct {
	Queue   *ReviewQueue
	Catalog ClassCatalog

	// MaxDisplaySide, when > 0, downsamples annotated images for display so that
	// neither side exceeds it. Zero keeps the original size.
	MaxDisplaySide int

	persister Persister

	labels   map[string]NamedFile // Label files keyed by base name, for pairing in either arrival order.
	rendered map[string][]byte    // Annotated PNG bytes keyed by item ID.
}

// NewReviewSession returns an empty session that persists submitted items through p.
func NewReviewSession(p Persister) *ReviewSession {
	return &ReviewSession{
		Queue:     NewReviewQueue(),
		persister: p,
		labels:    make(map[string]NamedFile),
		rendered:  make(map[string][]byte),
	}
}

// SetClassNames replaces the class catalog from a class names file (one name per
// line, in class id order) and returns the number of classes loaded.
func (s *ReviewSession) SetClassNames(data []byte) int {
	s.Catalog = ParseClassNames(data)
	s.rendered = make(map[string][]byte)
	return len(s.Catalog)
}

// AddImages enqueues a review item for each image file. Images whose base name is
// already queued are skipped, so re-adding the same upload is harmless. A label
// file registered earlier under the same base name is paired immediately.
// Returns the number of items added.
func (s *ReviewSession) AddImages(images []NamedFile) int {
	added := 0
	for _, img := range images {
		id := baseNameNoExt(img.Name)
		item := &ReviewItem{ID: id, ImageName: img.Name, ImageData: img.Data}
		if label, ok := s.labels[id]; ok {
			item.LabelName = label.Name
			item.LabelData = label.Data
		}
		if s.Queue.Enqueue(item) {
			added++
		}
	}
	return added
}

// AddLabels registers label files and pairs each with the queued image of the same
// base name, if one exists. Base names that already have a label are skipped.
// Returns the number of label files added.
func (s *ReviewSession) AddLabels(labels []NamedFile) int {
	added := 0
	for _, label := range labels {
		id := baseNameNoExt(label.Name)
		if _, ok := s.labels[id]; ok {
			continue
		}
		s.labels[id] = label
		added++

		if item := s.Queue.ByID(id); item != nil {
			item.LabelName = label.Name
			item.LabelData = label.Data
			delete(s.rendered, id)
		}
	}
	return added
}

// RenderedItem is the current queue item prepared for display.
type RenderedItem struct {
	ID          string
	ImageName   string
	Index       int // Zero-based position in the queue.
	Total       int
	Detections  int
	Provisional Decision
	ParseError  string // Non-empty when the label file could not be decoded.

	// Image holds PNG bytes with the boxes burned in when there are detections to
	// draw, and the unmodified upload bytes otherwise.
	Image []byte
}

// RenderCurrent decodes the current item's image and labels, draws the detection
// overlay and returns the result for display.
//
// A malformed label file does not fail the render: the item stays reviewable, the
// image is shown without boxes and ParseError carries the decode failure. Rendered
// bytes are memoized per item until the item's labels or the catalog change.
func (s *ReviewSession) RenderCurrent() (*RenderedItem, error) {
	item, err := s.Queue.Current()
	if err != nil {
		return nil, err
	}

	out := &RenderedItem{
		ID:          item.ID,
		ImageName:   item.ImageName,
		Index:       s.Queue.Cursor(),
		Total:       s.Queue.Len(),
		Provisional: s.Queue.Provisional(item.ID),
	}

	img, _, err := image.Decode(bytes.NewReader(item.ImageData))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image %q: %v", item.ImageName, err)
	}
	bounds := img.Bounds()

	var detections []Detection
	if item.LabelData != nil {
		detections, err = ParseYOLO(string(item.LabelData), bounds.Dx(), bounds.Dy())
		if err != nil {
			log.Printf("Cannot parse the labels for %q: %v", item.ImageName, err)
			out.ParseError = err.Error()
			detections = nil
		}
	}
	out.Detections = len(detections)

	if len(detections) == 0 {
		// Nothing to draw; redisplay the original upload bytes unmodified.
		out.Image = item.ImageData
		return out, nil
	}

	if cached, ok := s.rendered[item.ID]; ok {
		out.Image = cached
		return out, nil
	}

	annotated := DrawDetections(img, detections, s.Catalog)
	annotated = FitForDisplay(annotated, s.MaxDisplaySide)
	encoded, err := EncodePNG(annotated)
	if err != nil {
		return nil, fmt.Errorf("cannot encode the annotated image for %q: %v", item.ImageName, err)
	}
	s.rendered[item.ID] = encoded
	out.Image = encoded
	return out, nil
}

// Advance moves the review cursor by delta positions, wrapping circularly.
func (s *ReviewSession) Advance(delta int) {
	s.Queue.Advance(delta)
}

// SetProvisional records the reviewer's current, not-yet-submitted selection for
// the item with the given ID.
func (s *ReviewSession) SetProvisional(id string, decision Decision) {
	s.Queue.SetProvisional(id, decision)
}

// Submit commits the decision for the current item: its files are persisted and
// the item leaves the queue. When persistence fails the item stays pending and the
// error is returned for the shell to surface.
func (s *ReviewSession) Submit(decision Decision) error {
	item, err := s.Queue.Current()
	if err != nil {
		return err
	}
	if err := s.Queue.Submit(decision, s.persister); err != nil {
		return err
	}
	delete(s.rendered, item.ID)
	log.Printf("Moved %q to the %q folder", item.ImageName, decision.Folder())
	return nil
}
