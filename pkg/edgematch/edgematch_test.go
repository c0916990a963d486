package edgematch

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/pixel"
)

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func filled(c color.NRGBA) *pixel.Buffer { return pixel.Filled(8, 8, c) }

func TestDirections(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, West, East.Opposite())
	assert.Equal(t, North, South.Opposite())
	assert.Equal(t, East, West.Opposite())
	assert.Equal(t, pixel.Right, East.Side())
	assert.Equal(t, "west", West.String())
}

func TestIdenticalTilesScoreOne(t *testing.T) {
	res, err := Match([]Tile{{ID: 0, Buffer: filled(white)}, {ID: 1, Buffer: filled(white)}}, 4)
	require.NoError(t, err)
	require.Len(t, res.Entries, 8)
	for _, e := range res.Entries {
		require.Len(t, e.Candidates, 1)
		assert.Equal(t, 1.0, e.Candidates[0].Score, "tile %d %s", e.TileID, e.Direction)
		assert.NotEqual(t, e.TileID, e.Candidates[0].TileID)
	}
	assert.Equal(t, 1.0, res.BestMean)
	assert.Equal(t, 0.0, res.BestStdDev)
}

func TestOpaqueBlackVsTransparentScoresZero(t *testing.T) {
	res, err := Match([]Tile{{ID: 0, Buffer: filled(black)}, {ID: 1, Buffer: pixel.New(8, 8)}}, 4)
	require.NoError(t, err)
	for _, e := range res.Entries {
		assert.Equal(t, 0.0, e.Candidates[0].Score)
	}
}

func TestCandidateCountExcludesSelf(t *testing.T) {
	for n := 1; n <= 7; n++ {
		tiles := make([]Tile, n)
		for i := range tiles {
			tiles[i] = Tile{ID: i * 10, Buffer: filled(color.NRGBA{R: uint8(i), A: 255})}
		}
		res, err := Match(tiles, 4)
		require.NoError(t, err)
		for _, e := range res.Entries {
			assert.Len(t, e.Candidates, min(4, n-1))
			for _, c := range e.Candidates {
				assert.NotEqual(t, e.TileID, c.TileID)
			}
		}
	}
}

func TestTieOrderByTileID(t *testing.T) {
	tiles := []Tile{
		{ID: 9, Buffer: filled(white)},
		{ID: 3, Buffer: filled(white)},
		{ID: 5, Buffer: filled(white)},
		{ID: 1, Buffer: filled(white)},
	}
	res, err := Match(tiles, 4)
	require.NoError(t, err)

	e, ok := res.Lookup(9, East)
	require.True(t, ok)
	var got []int
	for _, c := range e.Candidates {
		got = append(got, c.TileID)
	}
	assert.Equal(t, []int{1, 3, 5}, got)
}

func TestOpposingStrips(t *testing.T) {
	// a: left column red, rest white. b: right column red, rest white.
	red := color.NRGBA{R: 255, A: 255}
	a := pixel.Filled(4, 4, white)
	b := pixel.Filled(4, 4, white)
	a = paintColumn(a, 0, red)
	b = paintColumn(b, 3, red)

	res, err := Match([]Tile{{ID: 0, Buffer: a}, {ID: 1, Buffer: b}}, 1)
	require.NoError(t, err)

	// a's west column (red) meets b's east column (red).
	w, _ := res.Lookup(0, West)
	assert.Equal(t, 1.0, w.Candidates[0].Score)
	// a's east column (white) meets b's west column (white).
	e, _ := res.Lookup(0, East)
	assert.Equal(t, 1.0, e.Candidates[0].Score)
	// a's north row starts red; b's south row ends red.
	n, _ := res.Lookup(0, North)
	assert.Equal(t, 0.5, n.Candidates[0].Score)
	assert.Equal(t, 2, n.Candidates[0].Matches)
	assert.Equal(t, 4, n.Candidates[0].Length)
}

func paintColumn(b *pixel.Buffer, x int, c color.NRGBA) *pixel.Buffer {
	out := pixel.New(b.Width(), b.Height())
	img := out.Image().(interface {
		SetNRGBA(x, y int, c color.NRGBA)
	})
	for yy := range b.Height() {
		for xx := range b.Width() {
			if xx == x {
				img.SetNRGBA(xx, yy, c)
			} else {
				img.SetNRGBA(xx, yy, b.At(xx, yy))
			}
		}
	}
	return out
}

func TestTopKTruncates(t *testing.T) {
	tiles := make([]Tile, 6)
	for i := range tiles {
		tiles[i] = Tile{ID: i, Buffer: filled(white)}
	}
	res, err := Match(tiles, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TopK)
	e, _ := res.Lookup(0, South)
	assert.Len(t, e.Candidates, 2)
}

func TestMismatchedSizes(t *testing.T) {
	_, err := Match([]Tile{{ID: 0, Buffer: filled(white)}, {ID: 4, Buffer: pixel.New(4, 8)}}, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeEdgeMatch))
	assert.Contains(t, err.Error(), "tiles 4")
}

func TestInvalidTopK(t *testing.T) {
	_, err := Match([]Tile{{ID: 0, Buffer: filled(white)}}, 0)
	assert.True(t, errors.Is(err, errors.ErrCodeEdgeMatch))
}

func TestSingleTileHasEmptyLists(t *testing.T) {
	res, err := Match([]Tile{{ID: 0, Buffer: filled(white)}}, 4)
	require.NoError(t, err)
	require.Len(t, res.Entries, 4)
	for _, e := range res.Entries {
		assert.Empty(t, e.Candidates)
	}
	assert.Zero(t, res.BestMean)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 2, Score([]color.NRGBA{black, white, black}, []color.NRGBA{black, black, black}))
	// Same colour channels, different alpha: not equal.
	assert.Equal(t, 0, Score([]color.NRGBA{{R: 1, A: 255}}, []color.NRGBA{{R: 1, A: 254}}))
}
