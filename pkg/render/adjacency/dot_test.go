package adjacency

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/tilekit/pkg/edgematch"
	"github.com/matzehuels/tilekit/pkg/organizer"
)

func testMatch() organizer.Match {
	return organizer.Match{
		Group: "walls",
		Names: map[int]string{1: "walls/wall_00_00.png", 2: "walls/wall_01_00.png", 3: "walls/wall_02_00.png"},
		Result: &edgematch.Result{
			TopK: 2,
			Entries: []edgematch.Entry{
				{TileID: 1, Direction: edgematch.East, Candidates: []edgematch.Candidate{
					{TileID: 2, Score: 1}, {TileID: 3, Score: 0.5},
				}},
				{TileID: 2, Direction: edgematch.North, Candidates: []edgematch.Candidate{
					{TileID: 3, Score: 0}, {TileID: 1, Score: 0},
				}},
				{TileID: 3, Direction: edgematch.West, Candidates: nil},
			},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testMatch(), Options{})

	for _, want := range []string{
		`label="walls";`,
		`"t1" [label="wall_00_00.png"];`,
		`"t3" [label="wall_02_00.png"];`,
		`"t1":e -> "t2":w [label="east 1.00", style=solid];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"t3":w`) {
		t.Error("ToDOT() drew a non-top candidate without Options.All")
	}
	if strings.Contains(dot, `"t2":n`) {
		t.Error("ToDOT() drew a zero-score edge")
	}
}

func TestToDOTAll(t *testing.T) {
	dot := ToDOT(testMatch(), Options{All: true})
	want := `"t1":e -> "t3":w [label="east 0.50", style=dashed];`
	if !strings.Contains(dot, want) {
		t.Errorf("ToDOT(All) missing %q in:\n%s", want, dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %q, want %q", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("normalizeViewBox() changed an SVG without viewBox")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), `digraph G { "t0":e -> "t1":w }`)
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	out := string(svg)
	if !strings.Contains(out, "<svg") {
		t.Fatalf("RenderSVG() returned no svg element:\n%s", out)
	}
	if !strings.Contains(out, `viewBox="0 0 `) {
		t.Errorf("RenderSVG() viewBox is not zero-origin:\n%s", out)
	}

	svg, err = RenderSVG(context.Background(), ToDOT(testMatch(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG(ToDOT) error = %v", err)
	}
	if !strings.Contains(string(svg), "wall_00_00.png") {
		t.Error("RenderSVG(ToDOT) lost the node labels")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("RenderSVG() accepted unterminated DOT")
	}
}
