// Package edgematch ranks likely neighbours between the tiles of a group.
//
// For a tile A and a compass direction d, every other tile B is scored by
// comparing A's boundary strip on side d with B's strip on the opposite side
// (A's east column against B's west column, and so on). The score is the
// fraction of positions whose pixels are identical in all four NRGBA
// channels. There is no colour tolerance.
//
// Scores are a heuristic. They suggest neighbours to a curator and are never
// treated as ground truth.
package edgematch

import (
	"image/color"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/pixel"
)

// Direction is a compass direction from a tile towards a neighbour.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists the four directions in output order.
var Directions = [4]Direction{North, East, South, West}

// String returns the lower-case direction name used in metadata.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the direction facing d.
func (d Direction) Opposite() Direction { return (d + 2) % 4 }

// Side returns the tile boundary that faces d.
func (d Direction) Side() pixel.Side {
	switch d {
	case North:
		return pixel.Top
	case East:
		return pixel.Right
	case South:
		return pixel.Bottom
	default:
		return pixel.Left
	}
}

// Tile is one participant of a match.
type Tile struct {
	ID     int
	Buffer *pixel.Buffer
}

// Candidate is a suggested neighbour.
type Candidate struct {
	TileID  int
	Score   float64 // Matches / Length, in [0, 1]
	Matches int
	Length  int
}

// Entry holds the ranked candidates for one tile in one direction.
type Entry struct {
	TileID     int
	Direction  Direction
	Candidates []Candidate
}

// Result is the outcome of matching one group.
type Result struct {
	TopK    int
	Entries []Entry // Input tile order, then Directions order

	// Mean and standard deviation of each tile's best candidate score.
	// Zero when fewer than two tiles take part.
	BestMean   float64
	BestStdDev float64
}

// Lookup returns the entry for tile id in direction d.
func (r *Result) Lookup(id int, d Direction) (Entry, bool) {
	for _, e := range r.Entries {
		if e.TileID == id && e.Direction == d {
			return e, true
		}
	}
	return Entry{}, false
}

// Score counts the positions at which a and b hold identical pixels.
func Score(a, b []color.NRGBA) int {
	n := 0
	for i := range min(len(a), len(b)) {
		if a[i] == b[i] {
			n++
		}
	}
	return n
}

// Match scores every ordered pair of tiles in all four directions and keeps
// the topK best candidates per tile and direction, ordered by score
// descending and tile id ascending. A tile is never its own candidate.
// Tiles must share one size; otherwise Match fails with EDGE_MATCH_ERROR.
func Match(tiles []Tile, topK int) (*Result, error) {
	if topK < 1 {
		return nil, errors.New(errors.ErrCodeEdgeMatch, "top_k must be at least 1, got %d", topK)
	}
	if len(tiles) == 0 {
		return &Result{TopK: topK}, nil
	}

	size := tiles[0].Buffer.Size()
	var mismatched []int
	ids := make(map[int]bool, len(tiles))
	for _, t := range tiles {
		if ids[t.ID] {
			return nil, errors.New(errors.ErrCodeEdgeMatch, "tile %d takes part twice", t.ID).Tiles(t.ID)
		}
		ids[t.ID] = true
		if t.Buffer.Size() != size {
			mismatched = append(mismatched, t.ID)
		}
	}
	if len(mismatched) > 0 {
		return nil, errors.New(errors.ErrCodeEdgeMatch,
			"tile sizes differ from %dx%d of tile %d", size.X, size.Y, tiles[0].ID).Tiles(mismatched...)
	}

	strips := make([][4][]color.NRGBA, len(tiles))
	for i, t := range tiles {
		for _, d := range Directions {
			strips[i][d] = t.Buffer.Strip(d.Side())
		}
	}

	res := &Result{TopK: topK, Entries: make([]Entry, 0, len(tiles)*len(Directions))}
	best := make([]float64, len(tiles))
	for i, a := range tiles {
		for _, d := range Directions {
			own := strips[i][d]
			cands := make([]Candidate, 0, len(tiles)-1)
			for j, b := range tiles {
				if i == j {
					continue
				}
				m := Score(own, strips[j][d.Opposite()])
				cands = append(cands, Candidate{
					TileID:  b.ID,
					Score:   float64(m) / float64(len(own)),
					Matches: m,
					Length:  len(own),
				})
			}
			slices.SortFunc(cands, func(x, y Candidate) int {
				if x.Matches != y.Matches {
					return y.Matches - x.Matches
				}
				return x.TileID - y.TileID
			})
			cands = cands[:min(topK, len(cands))]
			if len(cands) > 0 {
				best[i] = math.Max(best[i], cands[0].Score)
			}
			res.Entries = append(res.Entries, Entry{TileID: a.ID, Direction: d, Candidates: cands})
		}
	}

	if len(best) >= 2 {
		res.BestMean = stat.Mean(best, nil)
		res.BestStdDev = stat.StdDev(best, nil)
	}
	return res, nil
}
