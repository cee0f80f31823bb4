package wizard

import (
	"strings"

	"github.com/lumenfeed/lumenfeed/pkg/utils/text"
)

// Tag selection policy: a post carries between 3 and 10 tags.
const (
	MinTags = 3
	MaxTags = 10
)

// TagPicker accumulates the tag selection. Labels are Title-Cased on
// add and deduplicated case-insensitively.
type TagPicker struct {
	tags []string
}

// NewTagPicker returns an empty picker.
func NewTagPicker() *TagPicker {
	return &TagPicker{}
}

// Add normalizes and appends a tag. Blank input, duplicates and adds
// past the cap are silently ignored; the return value reports whether
// the tag was taken.
func (p *TagPicker) Add(raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return false
	}

	label := text.TitleCase(v)
	if len(p.tags) >= MaxTags || p.contains(label) {
		return false
	}

	p.tags = append(p.tags, label)
	return true
}

// Remove drops a tag by label (case-insensitive).
func (p *TagPicker) Remove(label string) {
	for i, t := range p.tags {
		if strings.EqualFold(t, label) {
			p.tags = append(p.tags[:i], p.tags[i+1:]...)
			return
		}
	}
}

// Tags returns the selected labels in insertion order.
func (p *TagPicker) Tags() []string {
	out := make([]string, len(p.tags))
	copy(out, p.tags)
	return out
}

// Len returns the number of selected tags.
func (p *TagPicker) Len() int { return len(p.tags) }

// CanAdvance reports whether the selection satisfies the 3..10 range.
func (p *TagPicker) CanAdvance() bool {
	return len(p.tags) >= MinTags && len(p.tags) <= MaxTags
}

func (p *TagPicker) contains(label string) bool {
	for _, t := range p.tags {
		if strings.EqualFold(t, label) {
			return true
		}
	}
	return false
}
