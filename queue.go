package lblreview

// The review queue: pending image/label pairs and their review state.

import (
	"errors"
	"fmt"
	"strings"
)

// Decision classifies a reviewed image/label pair.
type Decision int

const (
	DecisionCorrect Decision = iota
	DecisionIncorrect
	DecisionToDelete
)

// String returns the decision name as shown in the review UI.
func (d Decision) String() string {
	switch d {
	case DecisionCorrect:
		return "Correct"
	case DecisionIncorrect:
		return "Incorrect"
	case DecisionToDelete:
		return "To Be Deleted"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Folder is the name of the validation folder that collects items with this
// decision.
func (d Decision) Folder() string {
	switch d {
	case DecisionCorrect:
		return "correct"
	case DecisionIncorrect:
		return "incorrect"
	case DecisionToDelete:
		return "to_delete"
	}
	return ""
}

// ParseDecision maps a decision name, in either its UI form ("To Be Deleted") or
// its folder form ("to_delete"), to a Decision.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "correct":
		return DecisionCorrect, nil
	case "incorrect":
		return DecisionIncorrect, nil
	case "to be deleted", "to_delete":
		return DecisionToDelete, nil
	}
	return DecisionCorrect, fmt.Errorf("unknown decision %q", s)
}

// ReviewItem is one image awaiting review, together with its optional label file.
type ReviewItem struct {
	ID        string // Image base name without extension; the identity within the queue.
	ImageName string // Original image file name.
	ImageData []byte
	LabelName string // Original label file name; empty when no label is known.
	LabelData []byte // nil when no label is known.

	// The not-yet-submitted UI selection for this item. The zero value is
	// DecisionCorrect, which is also the default selection.
	provisional Decision
}

// Persister writes a reviewed item's files to their final location. The queue only
// removes an item once its persister call succeeds, so implementations must not
// report success on partial writes without naming the file that failed.
type Persister interface {
	Persist(item *ReviewItem, decision Decision) error
}

// ErrEmptyQueue is returned when the queue has no items left to review.
var ErrEmptyQueue = errors.New("the review queue is empty")

// ReviewQueue is an ordered collection of pending review items plus a cursor.
//
// The cursor always satisfies 0 <= cursor < Len() while the queue is non-empty,
// and is 0 when the queue is empty. ReviewQueue is not safe for concurrent use;
// it models the discrete actions of a single reviewer.
type ReviewQueue struct {
	items  []*ReviewItem
	cursor int
}

// NewReviewQueue returns an empty queue.
func NewReviewQueue() *ReviewQueue {
	return &ReviewQueue{}
}

// Len is the number of pending items.
func (q *ReviewQueue) Len() int {
	return len(q.items)
}

// Cursor is the position of the current item. Zero when the queue is empty.
func (q *ReviewQueue) Cursor() int {
	return q.cursor
}

// Enqueue appends item unless an item with the same ID is already queued; a queued
// item is never replaced. Returns true if the item was added.
func (q *ReviewQueue) Enqueue(item *ReviewItem) bool {
	if q.find(item.ID) >= 0 {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Current returns the item under the cursor, or ErrEmptyQueue.
func (q *ReviewQueue) Current() (*ReviewItem, error) {
	if len(q.items) == 0 {
		return nil, ErrEmptyQueue
	}
	return q.items[q.cursor], nil
}

// ByID returns the queued item with the given ID, or nil.
func (q *ReviewQueue) ByID(id string) *ReviewItem {
	if i := q.find(id); i >= 0 {
		return q.items[i]
	}
	return nil
}

// Advance moves the cursor by delta positions, wrapping circularly in either
// direction. delta is normally +1 or -1. On an empty queue this is a no-op, and on
// a single-item queue the cursor stays at 0.
func (q *ReviewQueue) Advance(delta int) {
	n := len(q.items)
	if n == 0 {
		return
	}
	q.cursor = ((q.cursor+delta)%n + n) % n
}

// SetProvisional records the not-yet-submitted selection for the item with the
// given ID, so that navigating away and back restores it. Unknown IDs are ignored.
func (q *ReviewQueue) SetProvisional(id string, decision Decision) {
	if i := q.find(id); i >= 0 {
		q.items[i].provisional = decision
	}
}

// Provisional returns the provisional selection for the item with the given ID.
// Unknown IDs report the default selection, DecisionCorrect.
func (q *ReviewQueue) Provisional(id string) Decision {
	if i := q.find(id); i >= 0 {
		return q.items[i].provisional
	}
	return DecisionCorrect
}

// Submit commits a decision for the current item: the item's files are handed to
// the persister and, only on success, the item is removed from the queue. A failed
// persist leaves the queue untouched so the action can be retried.
//
// After removal the cursor is recomputed modulo the new length, which leaves it on
// the item that followed the submitted one (wrapping to the front when the last
// item was submitted).
func (q *ReviewQueue) Submit(decision Decision, p Persister) error {
	item, err := q.Current()
	if err != nil {
		return err
	}
	if err := p.Persist(item, decision); err != nil {
		return err
	}

	q.items = append(q.items[:q.cursor], q.items[q.cursor+1:]...)
	if len(q.items) == 0 {
		q.cursor = 0
	} else {
		q.cursor %= len(q.items)
	}
	return nil
}

func (q *ReviewQueue) find(id string) int {
	for i, item := range q.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
