package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrLastImage refuses removing the only remaining image.
	ErrLastImage = errors.New("cannot remove the last image")
)

// Gallery tracks the user-chosen display order and cover choice over an
// immutable list of selected images. Positions index the current
// display order; the values in Order are indices into the original
// selection.
type Gallery struct {
	order []int
	cover int
}

// NewGallery starts with the images in selection order, first as cover.
func NewGallery(count int) (*Gallery, error) {
	if count < 1 {
		return nil, errors.New("gallery needs at least one image")
	}
	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	return &Gallery{order: order}, nil
}

// Len returns the number of images currently in the gallery.
func (g *Gallery) Len() int { return len(g.order) }

// Order returns the original indices in display order.
func (g *Gallery) Order() []int {
	out := make([]int, len(g.order))
	copy(out, g.order)
	return out
}

// Cover returns the cover's position in the display order.
func (g *Gallery) Cover() int { return g.cover }

// CoverSource returns the original index of the cover image.
func (g *Gallery) CoverSource() int { return g.order[g.cover] }

// SetCover marks the image at a display position as the cover.
func (g *Gallery) SetCover(pos int) error {
	if pos < 0 || pos >= len(g.order) {
		return fmt.Errorf("cover position %d out of range", pos)
	}
	g.cover = pos
	return nil
}

// Move swaps the image at pos with its neighbour (dir -1 up, +1 down).
// The cover keeps pointing at the same underlying image. Moves off
// either end are ignored.
func (g *Gallery) Move(pos, dir int) error {
	if pos < 0 || pos >= len(g.order) {
		return fmt.Errorf("position %d out of range", pos)
	}
	if dir != -1 && dir != 1 {
		return fmt.Errorf("direction must be -1 or 1, got %d", dir)
	}

	np := pos + dir
	if np < 0 || np >= len(g.order) {
		return nil
	}

	g.order[pos], g.order[np] = g.order[np], g.order[pos]
	switch g.cover {
	case pos:
		g.cover = np
	case np:
		g.cover = pos
	}
	return nil
}

// Remove drops the image at a display position. The cover follows the
// same underlying image; removing the cover itself falls back to the
// previous position.
func (g *Gallery) Remove(pos int) error {
	if pos < 0 || pos >= len(g.order) {
		return fmt.Errorf("position %d out of range", pos)
	}
	if len(g.order) <= 1 {
		return ErrLastImage
	}

	g.order = append(g.order[:pos], g.order[pos+1:]...)
	switch {
	case g.cover == pos:
		if pos > 0 {
			g.cover = pos - 1
		} else {
			g.cover = 0
		}
	case g.cover > pos:
		g.cover--
	}
	return nil
}
