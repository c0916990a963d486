// Package config models the curator-edited grouping config.
//
// A config maps group paths ("terrain/grass") to the tiles that belong in
// them, each with a local grid position, plus an optional connection
// strategy. Groups keep document order; everything downstream iterates them
// in that order.
//
// # Format
//
// JSON:
//
//	{
//	  "terrain/grass": {
//	    "base_name": "grass",
//	    "tiles": [{"tile": 0, "pos": [0, 0]}, {"sheet": [1, 0], "pos": [1, 0]}],
//	    "connect": {"type": "layout"}
//	  },
//	  "props/trees": {
//	    "tiles": [{"tile": 4, "pos": [0, 0]}, {"tile": 5, "pos": [1, 0]}],
//	    "connect": {"type": "edge_match", "top_k": 3}
//	  }
//	}
//
// TOML uses quoted table names for the group paths:
//
//	["terrain/grass"]
//	base_name = "grass"
//	tiles = [{tile = 0, pos = [0, 0]}, {sheet = [1, 0], pos = [1, 0]}]
//	connect = {type = "layout"}
package config

import (
	"fmt"
	"image"

	"github.com/matzehuels/tilekit/pkg/errors"
)

// DefaultTopK is the edge-match candidate count when top_k is omitted.
const DefaultTopK = 4

// MaxPos is the largest accepted grid coordinate of a placement.
const MaxPos = 4096

// ConnectKind selects how the tiles of a group relate to each other.
type ConnectKind int

const (
	ConnectNone ConnectKind = iota
	ConnectLayout
	ConnectEdgeMatch
)

// String returns the config spelling of k.
func (k ConnectKind) String() string {
	switch k {
	case ConnectLayout:
		return "layout"
	case ConnectEdgeMatch:
		return "edge_match"
	default:
		return "none"
	}
}

// Connect is the resolved connection strategy of a group.
// TopK is only meaningful for [ConnectEdgeMatch].
type Connect struct {
	Kind ConnectKind
	TopK int
}

// Layout returns a fixed-layout strategy.
func Layout() Connect { return Connect{Kind: ConnectLayout} }

// EdgeMatch returns an edge-match strategy keeping topK candidates.
func EdgeMatch(topK int) Connect { return Connect{Kind: ConnectEdgeMatch, TopK: topK} }

// Placement puts one manifest tile at a local grid position.
type Placement struct {
	TileID  int         // Manifest tile id; filled in by Resolve for sheet refs
	Sheet   image.Point // Manifest grid cell when BySheet is set
	BySheet bool
	Pos     image.Point
}

// Group is one output directory of the organized tree.
type Group struct {
	Path     string
	BaseName string // Sanitized
	Tiles    []Placement
	Connect  Connect
}

// Config is an ordered list of groups.
type Config struct {
	Source string // File the config was loaded from, if any
	Groups []Group

	resolved bool
}

// New validates groups and returns a config holding them in order.
// Empty base names are derived from the group path; every base name is
// sanitized.
func New(groups ...Group) (*Config, error) {
	c := normalize(groups)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func normalize(groups []Group) *Config {
	c := &Config{Groups: make([]Group, len(groups))}
	for i, g := range groups {
		g.Tiles = append([]Placement(nil), g.Tiles...)
		if g.BaseName == "" {
			g.BaseName = errors.BaseNameFromGroup(g.Path)
		} else {
			g.BaseName = errors.SanitizeBaseName(g.BaseName)
		}
		c.Groups[i] = g
	}
	return c
}

// Resolved reports whether every sheet reference has been mapped to a tile id.
func (c *Config) Resolved() bool { return c.resolved }

// Group returns the group at path.
func (c *Config) Group(path string) (Group, bool) {
	for _, g := range c.Groups {
		if g.Path == path {
			return g, true
		}
	}
	return Group{}, false
}

// Validate checks every group and reports all problems at once.
func (c *Config) Validate() error {
	errs, _ := c.problems()
	return errors.Join(errs...)
}

// problems returns every validation error and the paths of the groups
// they concern.
func (c *Config) problems() ([]error, map[string]bool) {
	var errs []error
	bad := make(map[string]bool)
	seen := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if seen[g.Path] {
			errs = append(errs, errors.New(errors.ErrCodeConfig, "duplicate group path").In(g.Path))
			bad[g.Path] = true
			continue
		}
		seen[g.Path] = true
		if gerrs := g.validate(); len(gerrs) > 0 {
			errs = append(errs, gerrs...)
			bad[g.Path] = true
		}
	}
	return errs, bad
}

func (g Group) validate() []error {
	var errs []error
	fail := func(format string, args ...any) *errors.Error {
		e := errors.New(errors.ErrCodeConfig, format, args...).In(g.Path)
		errs = append(errs, e)
		return e
	}

	if err := errors.ValidateGroupPath(g.Path); err != nil {
		errs = append(errs, errors.Wrap(errors.ErrCodeConfig, err, "invalid group path").In(g.Path))
	}
	if len(g.Tiles) == 0 {
		fail("group has no tiles")
	}

	switch g.Connect.Kind {
	case ConnectNone, ConnectLayout:
	case ConnectEdgeMatch:
		if g.Connect.TopK < 1 {
			fail("top_k must be at least 1, got %d", g.Connect.TopK)
		}
	default:
		fail("unknown connect kind %d", int(g.Connect.Kind))
	}

	byPos := make(map[image.Point]Placement, len(g.Tiles))
	byID := make(map[int]bool, len(g.Tiles))
	bySheet := make(map[image.Point]bool, len(g.Tiles))
	for _, p := range g.Tiles {
		if p.Pos.X < 0 || p.Pos.Y < 0 {
			fail("negative pos (%d,%d) for %s", p.Pos.X, p.Pos.Y, p)
		} else if p.Pos.X > MaxPos || p.Pos.Y > MaxPos {
			fail("pos (%d,%d) for %s exceeds %d", p.Pos.X, p.Pos.Y, p, MaxPos)
		}
		if prev, dup := byPos[p.Pos]; dup {
			fail("pos (%d,%d) is used by both %s and %s", p.Pos.X, p.Pos.Y, prev, p)
		} else {
			byPos[p.Pos] = p
		}

		if p.BySheet {
			if bySheet[p.Sheet] {
				fail("sheet cell (%d,%d) is listed twice", p.Sheet.X, p.Sheet.Y)
			}
			bySheet[p.Sheet] = true
			continue
		}
		if byID[p.TileID] {
			fail("tile is listed twice").Tiles(p.TileID)
		}
		byID[p.TileID] = true
	}
	return errs
}

// String describes the placement's tile reference.
func (p Placement) String() string {
	if p.BySheet {
		return fmt.Sprintf("sheet (%d,%d)", p.Sheet.X, p.Sheet.Y)
	}
	return fmt.Sprintf("tile %d", p.TileID)
}
