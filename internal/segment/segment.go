// Package segment splits text into alternating plain and annotated pieces
// for rendering.
package segment

import (
	"sort"

	"github.com/ppiankov/inclusify/internal/model"
)

// Split partitions text using annotations. Annotations are visited in
// ascending start order (ties keep their input order). Text not covered
// by any annotation is emitted as plain segments.
//
// Overlapping annotations never duplicate text: an annotation that starts
// before the end of the previous one is trimmed to begin where the previous
// one ended, and dropped if nothing remains. Ends past len(text) are
// clamped. Concatenating every Content returns text unchanged.
func Split(text string, annotations []model.Annotation) []model.Segment {
	if text == "" {
		return []model.Segment{}
	}

	ordered := make([]model.Annotation, len(annotations))
	copy(ordered, annotations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	segments := make([]model.Segment, 0, 2*len(ordered)+1)
	cursor := 0
	for i := range ordered {
		ann := ordered[i]
		start := max(ann.Start, cursor)
		end := min(ann.End, len(text))
		if start >= end {
			continue
		}

		if start > cursor {
			segments = append(segments, model.Segment{Content: text[cursor:start]})
		}
		segments = append(segments, model.Segment{
			Content:    text[start:end],
			Annotation: &ordered[i],
		})
		cursor = end
	}

	if cursor < len(text) {
		segments = append(segments, model.Segment{Content: text[cursor:]})
	}
	return segments
}

// Join concatenates segment contents
func Join(segments []model.Segment) string {
	n := 0
	for _, s := range segments {
		n += len(s.Content)
	}
	buf := make([]byte, 0, n)
	for _, s := range segments {
		buf = append(buf, s.Content...)
	}
	return string(buf)
}
