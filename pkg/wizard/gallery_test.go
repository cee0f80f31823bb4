package wizard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGallery(t *testing.T) {
	g, err := NewGallery(4)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, g.Order())
	assert.Equal(t, 0, g.Cover())
	assert.Equal(t, 0, g.CoverSource())

	_, err = NewGallery(0)
	assert.Error(t, err)
}

func TestGalleryMove(t *testing.T) {
	g, err := NewGallery(4)
	require.NoError(t, err)
	require.NoError(t, g.SetCover(2))

	// Moving the cover carries it along.
	require.NoError(t, g.Move(2, -1))
	assert.Equal(t, []int{0, 2, 1, 3}, g.Order())
	assert.Equal(t, 1, g.Cover())
	assert.Equal(t, 2, g.CoverSource())

	// Moving the neighbour into the cover slot swaps positions.
	require.NoError(t, g.Move(0, 1))
	assert.Equal(t, []int{2, 0, 1, 3}, g.Order())
	assert.Equal(t, 0, g.Cover())
	assert.Equal(t, 2, g.CoverSource())

	// Moves off the ends are ignored.
	require.NoError(t, g.Move(0, -1))
	assert.Equal(t, []int{2, 0, 1, 3}, g.Order())
	require.NoError(t, g.Move(3, 1))
	assert.Equal(t, []int{2, 0, 1, 3}, g.Order())
}

func TestGalleryRemove(t *testing.T) {
	g, err := NewGallery(5)
	require.NoError(t, err)
	require.NoError(t, g.SetCover(3))

	// Removing before the cover shifts its position, not its image.
	require.NoError(t, g.Remove(1))
	assert.Equal(t, []int{0, 2, 3, 4}, g.Order())
	assert.Equal(t, 2, g.Cover())
	assert.Equal(t, 3, g.CoverSource())

	// Removing after the cover leaves it alone.
	require.NoError(t, g.Remove(3))
	assert.Equal(t, []int{0, 2, 3}, g.Order())
	assert.Equal(t, 2, g.Cover())
	assert.Equal(t, 3, g.CoverSource())

	// Removing the cover falls back to the previous position.
	require.NoError(t, g.Remove(2))
	assert.Equal(t, []int{0, 2}, g.Order())
	assert.Equal(t, 1, g.Cover())
	assert.Equal(t, 2, g.CoverSource())
}

func TestGalleryRemoveLastRefused(t *testing.T) {
	g, err := NewGallery(1)
	require.NoError(t, err)

	assert.ErrorIs(t, g.Remove(0), ErrLastImage)
	assert.Equal(t, 1, g.Len())
}

func TestGalleryRemoveCoverAtHead(t *testing.T) {
	g, err := NewGallery(3)
	require.NoError(t, err)
	require.NoError(t, g.SetCover(0))

	require.NoError(t, g.Remove(0))
	assert.Equal(t, 0, g.Cover())
	assert.Equal(t, 1, g.CoverSource())
}

// Moves and non-cover removals never change which underlying image the
// cover refers to.
func TestGalleryCoverStability(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 50; trial++ {
		g, err := NewGallery(8)
		require.NoError(t, err)
		require.NoError(t, g.SetCover(rng.Intn(8)))

		want := g.CoverSource()

		for op := 0; op < 200 && g.Len() > 1; op++ {
			if rng.Intn(3) == 0 {
				// Remove a non-cover position.
				pos := rng.Intn(g.Len())
				if pos == g.Cover() {
					continue
				}
				require.NoError(t, g.Remove(pos))
			} else {
				dir := 1
				if rng.Intn(2) == 0 {
					dir = -1
				}
				require.NoError(t, g.Move(rng.Intn(g.Len()), dir))
			}

			require.Equal(t, want, g.CoverSource(), "trial %d op %d", trial, op)
		}
	}
}
