package config

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tilekit/pkg/errors"
)

type rawGroup struct {
	BaseName string      `json:"base_name" toml:"base_name"`
	Tiles    []rawTile   `json:"tiles" toml:"tiles"`
	Connect  *rawConnect `json:"connect" toml:"connect"`
}

type rawTile struct {
	Tile  *int  `json:"tile" toml:"tile"`
	Sheet []int `json:"sheet" toml:"sheet"`
	Pos   []int `json:"pos" toml:"pos"`
}

type rawConnect struct {
	Type string `json:"type" toml:"type"`
	TopK *int   `json:"top_k" toml:"top_k"`
}

type namedGroup struct {
	path string
	body rawGroup
}

// Load reads a grouping config, choosing the decoder by file extension
// (.json or .toml).
func Load(path string) (*Config, error) {
	c, _, err := parse(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// parse is Load that keeps the decoded config when only some groups are
// invalid. It returns a nil config only when the file cannot be decoded.
func parse(path string) (*Config, map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open config %s", path)
		}
		return nil, nil, err
	}

	var named []namedGroup
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		named, err = decodeJSON(bytes.NewReader(data))
	case ".toml":
		named, err = decodeTOML(string(data))
	default:
		return nil, nil, errors.New(errors.ErrCodeConfig, "unsupported config format %q (want .json or .toml)", ext)
	}
	if err != nil {
		return nil, nil, err
	}
	c, bad, err := build(named)
	c.Source = path
	return c, bad, err
}

// ParseJSON decodes a JSON grouping config. Group order follows the
// document; a repeated group path is reported rather than overwritten.
func ParseJSON(r io.Reader) (*Config, error) {
	named, err := decodeJSON(r)
	if err != nil {
		return nil, err
	}
	return valid(build(named))
}

func decodeJSON(r io.Reader) ([]namedGroup, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse json")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New(errors.ErrCodeConfig, "top level must be an object mapping group paths to groups")
	}

	var groups []namedGroup
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse json")
		}
		path, _ := tok.(string)
		var body rawGroup
		if err := dec.Decode(&body); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "decode group").In(path)
		}
		groups = append(groups, namedGroup{path: path, body: body})
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse json")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeConfig, "unexpected data after config object")
	}
	return groups, nil
}

// ParseTOML decodes a TOML grouping config. Group order follows the order
// in which tables appear in the document.
func ParseTOML(data string) (*Config, error) {
	named, err := decodeTOML(data)
	if err != nil {
		return nil, err
	}
	return valid(build(named))
}

func decodeTOML(data string) ([]namedGroup, error) {
	var raw map[string]rawGroup
	md, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}

	var groups []namedGroup
	seen := make(map[string]bool, len(raw))
	for _, key := range md.Keys() {
		if len(key) != 1 || seen[key[0]] {
			continue
		}
		seen[key[0]] = true
		groups = append(groups, namedGroup{path: key[0], body: raw[key[0]]})
	}
	return groups, nil
}

// build converts decoded groups, collecting structural problems alongside
// the semantic checks of [Config.Validate]. The config is always returned;
// bad holds the paths of the groups that have problems.
func build(named []namedGroup) (c *Config, bad map[string]bool, err error) {
	var errs []error
	structural := make(map[string]bool)
	groups := make([]Group, 0, len(named))
	for _, ng := range named {
		g, gerrs := convert(ng.path, ng.body)
		if len(gerrs) > 0 {
			errs = append(errs, gerrs...)
			structural[ng.path] = true
		}
		groups = append(groups, g)
	}

	c = normalize(groups)
	verrs, bad := c.problems()
	for path := range structural {
		bad[path] = true
	}
	return c, bad, errors.Join(append(errs, verrs...)...)
}

func valid(c *Config, _ map[string]bool, err error) (*Config, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

func convert(path string, body rawGroup) (Group, []error) {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, errors.New(errors.ErrCodeConfig, format, args...).In(path))
	}

	g := Group{Path: path, BaseName: body.BaseName}

	switch {
	case body.Connect == nil:
	case body.Connect.Type == "layout":
		g.Connect = Layout()
		if body.Connect.TopK != nil {
			fail("top_k is only valid for edge_match")
		}
	case body.Connect.Type == "edge_match":
		g.Connect = EdgeMatch(DefaultTopK)
		if body.Connect.TopK != nil {
			g.Connect.TopK = *body.Connect.TopK
		}
	default:
		fail("unknown connect type %q", body.Connect.Type)
	}

	multi := len(body.Tiles) > 1
	for i, rt := range body.Tiles {
		var p Placement
		switch {
		case rt.Tile != nil && rt.Sheet != nil:
			fail("tiles[%d] sets both tile and sheet", i)
			continue
		case rt.Tile != nil:
			p.TileID = *rt.Tile
		case rt.Sheet != nil:
			if len(rt.Sheet) != 2 {
				fail("tiles[%d].sheet must be [x, y]", i)
				continue
			}
			p.BySheet = true
			p.Sheet = image.Pt(rt.Sheet[0], rt.Sheet[1])
		default:
			fail("tiles[%d] needs a tile id or a sheet cell", i)
			continue
		}

		switch {
		case rt.Pos == nil && multi:
			fail("tiles[%d] (%s) has no pos; every tile of a multi-tile group needs pos [x, y]", i, p)
			continue
		case rt.Pos == nil:
		case len(rt.Pos) != 2:
			fail("tiles[%d].pos must be [x, y]", i)
			continue
		default:
			p.Pos = image.Pt(rt.Pos[0], rt.Pos[1])
		}
		g.Tiles = append(g.Tiles, p)
	}
	return g, errs
}
