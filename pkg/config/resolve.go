package config

import (
	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/manifest"
)

// Resolve maps sheet references to manifest tile ids and checks that every
// referenced tile exists. It returns a resolved copy; c is unchanged.
// Missing tiles fail with MANIFEST_LOOKUP_ERROR, and a tile reached twice
// in one group (once by id, once by sheet cell) fails with CONFIG_ERROR.
func (c *Config) Resolve(m *manifest.Manifest) (*Config, error) {
	out := &Config{Source: c.Source, Groups: make([]Group, len(c.Groups)), resolved: true}
	var errs []error
	for gi, g := range c.Groups {
		g.Tiles = append([]Placement(nil), g.Tiles...)
		seen := make(map[int]Placement, len(g.Tiles))
		for i, p := range g.Tiles {
			if p.BySheet {
				t, ok := m.LookupCell(p.Sheet)
				if !ok {
					errs = append(errs, errors.New(errors.ErrCodeManifestLookup,
						"no manifest tile at sheet cell (%d,%d)", p.Sheet.X, p.Sheet.Y).In(g.Path))
					continue
				}
				p.TileID = t.ID
				g.Tiles[i] = p
			} else if _, ok := m.Lookup(p.TileID); !ok {
				errs = append(errs, errors.New(errors.ErrCodeManifestLookup,
					"tile %d is not in the manifest", p.TileID).In(g.Path).Tiles(p.TileID))
				continue
			}
			if prev, dup := seen[p.TileID]; dup {
				errs = append(errs, errors.New(errors.ErrCodeConfig,
					"tile %d is listed twice (%s and %s)", p.TileID, prev, p).In(g.Path).Tiles(p.TileID))
				continue
			}
			seen[p.TileID] = p
		}
		out.Groups[gi] = g
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// LoadResolved loads the config at path and resolves it against m.
// Groups that fail validation are left out of resolution, so the returned
// error lists config problems and missing tiles together.
func LoadResolved(path string, m *manifest.Manifest) (*Config, error) {
	c, bad, err := parse(path)
	if c == nil {
		return nil, err
	}
	if err == nil {
		return c.Resolve(m)
	}

	ok := &Config{Source: c.Source}
	for _, g := range c.Groups {
		if !bad[g.Path] {
			ok.Groups = append(ok.Groups, g)
		}
	}
	_, rerr := ok.Resolve(m)
	return nil, errors.Join(err, rerr)
}

// TileIDs returns the resolved tile ids of g in placement order.
func (g Group) TileIDs() []int {
	ids := make([]int, len(g.Tiles))
	for i, p := range g.Tiles {
		ids[i] = p.TileID
	}
	return ids
}
