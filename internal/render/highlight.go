package render

import (
	"fmt"

	"github.com/ppiankov/inclusify/internal/model"
)

// ActivateFunc receives the segment a user selected and its annotation
type ActivateFunc func(model.Segment, model.Annotation)

// Highlighter holds the segments of one analysis and routes activation of
// annotated segments to a callback (a details panel, a tooltip, ...).
type Highlighter struct {
	segments   []model.Segment
	annotated  []int
	onActivate ActivateFunc
}

// NewHighlighter creates a highlighter over segments. onActivate may be nil.
func NewHighlighter(segments []model.Segment, onActivate ActivateFunc) *Highlighter {
	h := &Highlighter{
		segments:   segments,
		onActivate: onActivate,
	}
	for i, s := range segments {
		if s.Annotated() {
			h.annotated = append(h.annotated, i)
		}
	}
	return h
}

// Segments returns the segments in render order
func (h *Highlighter) Segments() []model.Segment {
	return h.segments
}

// Annotated returns the indices of annotated segments
func (h *Highlighter) Annotated() []int {
	return h.annotated
}

// Marker returns the 1-based marker number of segment i, or 0 when the
// segment is plain
func (h *Highlighter) Marker(i int) int {
	for n, idx := range h.annotated {
		if idx == i {
			return n + 1
		}
	}
	return 0
}

// Activate selects segment i. The callback runs only for annotated
// segments; activating a plain segment is a no-op that returns false.
func (h *Highlighter) Activate(i int) (bool, error) {
	if i < 0 || i >= len(h.segments) {
		return false, fmt.Errorf("segment %d out of range [0,%d)", i, len(h.segments))
	}

	seg := h.segments[i]
	if !seg.Annotated() {
		return false, nil
	}
	if h.onActivate != nil {
		h.onActivate(seg, *seg.Annotation)
	}
	return true, nil
}

// ActivateMarker selects the annotated segment shown with marker n
func (h *Highlighter) ActivateMarker(n int) (bool, error) {
	if n < 1 || n > len(h.annotated) {
		return false, fmt.Errorf("marker %d out of range [1,%d]", n, len(h.annotated))
	}
	return h.Activate(h.annotated[n-1])
}
