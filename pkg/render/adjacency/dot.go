// Package adjacency renders edge-match suggestions as a Graphviz graph.
//
// Each tile of an edge-match group becomes a node. Every suggested
// neighbour becomes an edge leaving the tile on the matching compass port,
// so an "east" suggestion runs from the east side of one node to the west
// side of the other.
//
//	dot := adjacency.ToDOT(m, adjacency.Options{})
//	svg, err := adjacency.RenderSVG(ctx, dot)
package adjacency

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tilekit/pkg/edgematch"
	"github.com/matzehuels/tilekit/pkg/organizer"
)

// Options configures graph generation.
type Options struct {
	// All draws every retained candidate. By default only the best
	// candidate per tile and direction is drawn.
	All bool

	// MinScore drops candidates scoring at or below it.
	MinScore float64
}

var ports = map[edgematch.Direction][2]string{
	edgematch.North: {"n", "s"},
	edgematch.East:  {"e", "w"},
	edgematch.South: {"s", "n"},
	edgematch.West:  {"w", "e"},
}

// ToDOT converts one group's edge-match result to Graphviz DOT.
func ToDOT(m organizer.Match, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  label=%q;\n", m.Group)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=9];\n")
	buf.WriteString("\n")

	seen := make(map[int]bool)
	for _, e := range m.Result.Entries {
		if seen[e.TileID] {
			continue
		}
		seen[e.TileID] = true
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(e.TileID), label(m, e.TileID))
	}

	buf.WriteString("\n")
	for _, e := range m.Result.Entries {
		for i, c := range e.Candidates {
			if i > 0 && !opts.All {
				break
			}
			if c.Score <= opts.MinScore {
				continue
			}
			p := ports[e.Direction]
			style := "solid"
			if i > 0 {
				style = "dashed"
			}
			fmt.Fprintf(&buf, "  %q:%s -> %q:%s [label=\"%s %.2f\", style=%s];\n",
				nodeID(e.TileID), p[0], nodeID(c.TileID), p[1], e.Direction, c.Score, style)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id int) string { return "t" + strconv.Itoa(id) }

func label(m organizer.Match, id int) string {
	if name, ok := m.Names[id]; ok {
		return path.Base(name)
	}
	return strconv.Itoa(id)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element to a zero-origin viewBox with
// matching width and height so the SVG scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
