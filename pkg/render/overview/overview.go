// Package overview renders a labelled contact sheet of a sliced tileset.
//
// Every manifest tile is drawn at its sheet cell, scaled up with
// nearest-neighbour sampling, framed, and optionally labelled with its id
// and cell. When groups are supplied each frame takes its group's colour,
// so a curator can see at a glance which tiles a config already covers.
package overview

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/cenkalti/dominantcolor"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/manifest"
	"github.com/matzehuels/tilekit/pkg/pixel"
)

// Label selects the text drawn under each tile.
type Label string

const (
	LabelNone    Label = "none"
	LabelIndex   Label = "index"
	LabelXY      Label = "xy"
	LabelIndexXY Label = "index+xy"
)

// Labels lists the accepted label modes.
var Labels = []Label{LabelNone, LabelIndex, LabelXY, LabelIndexXY}

// ParseLabel validates a label mode name.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown label mode %q (want none, index, xy or index+xy)", s)
}

const (
	DefaultScale = 8
	DefaultPad   = 6

	borderWidth = 2
	swatchSize  = 6
)

var (
	background  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	defaultEdge = color.NRGBA{R: 255, A: 255}
	ungrouped   = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
	textColor   = color.NRGBA{A: 255}
)

// Group colours the frames of the listed tiles.
type Group struct {
	Path    string
	TileIDs []int
}

// Options configures rendering.
type Options struct {
	Scale  int // <= 0 selects DefaultScale
	Pad    int // < 0 selects DefaultPad
	Label  Label
	Groups []Group // Optional; enables per-group frame colours
	Swatch bool    // Draw each tile's dominant colour beside its label
}

func (o *Options) setDefaults() {
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Pad < 0 {
		o.Pad = DefaultPad
	}
	if o.Label == "" {
		o.Label = LabelIndexXY
	}
}

// GroupColor returns the frame colour of group i out of n. Hues are spread
// evenly around the wheel.
func GroupColor(i, n int) color.NRGBA {
	if n <= 0 {
		return defaultEdge
	}
	h := math.Mod(float64(i)*360/float64(n), 360)
	r, g, b := colorful.Hsv(h, 0.8, 0.85).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Render draws the contact sheet for m with tile pixels from src.
func Render(m *manifest.Manifest, src pixel.Source, opts Options) (*image.NRGBA, error) {
	opts.setDefaults()
	if _, err := ParseLabel(string(opts.Label)); err != nil {
		return nil, err
	}
	if m.Grid.X <= 0 || m.Grid.Y <= 0 || m.TileSize.X <= 0 || m.TileSize.Y <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "manifest has no grid geometry")
	}

	face := basicfont.Face7x13
	labelH := 0
	if opts.Label != LabelNone {
		labelH = face.Metrics().Height.Ceil() + 4
	}

	cell := m.TileSize.Mul(opts.Scale)
	size := image.Pt(
		m.Grid.X*(cell.X+opts.Pad)+opts.Pad,
		m.Grid.Y*(cell.Y+labelH+opts.Pad)+opts.Pad,
	)
	canvas := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	frames := frameColors(opts.Groups)
	for _, t := range m.Tiles() {
		buf, err := src.Tile(t.ID)
		if err != nil {
			return nil, err
		}
		at := image.Pt(
			opts.Pad+t.Cell.X*(cell.X+opts.Pad),
			opts.Pad+t.Cell.Y*(cell.Y+labelH+opts.Pad),
		)
		dst := image.Rectangle{Min: at, Max: at.Add(cell)}
		draw.NearestNeighbor.Scale(canvas, dst, buf.Image(), buf.Image().Bounds(), draw.Over, nil)

		edge := defaultEdge
		if frames != nil {
			edge = ungrouped
			if c, ok := frames[t.ID]; ok {
				edge = c
			}
		}
		drawFrame(canvas, dst, edge)

		textX := at.X
		if opts.Swatch {
			sw := image.Rect(at.X, dst.Max.Y+2, at.X+swatchSize, dst.Max.Y+2+swatchSize)
			draw.Draw(canvas, sw, image.NewUniform(dominantcolor.Find(buf.Image())), image.Point{}, draw.Src)
			textX += swatchSize + 2
		}
		if text := labelText(opts.Label, t); text != "" {
			d := font.Drawer{
				Dst:  canvas,
				Src:  image.NewUniform(textColor),
				Face: face,
				Dot:  fixed.P(textX, dst.Max.Y+2+face.Metrics().Ascent.Ceil()),
			}
			d.DrawString(text)
		}
	}
	return canvas, nil
}

func frameColors(groups []Group) map[int]color.NRGBA {
	if len(groups) == 0 {
		return nil
	}
	out := make(map[int]color.NRGBA)
	for i, g := range groups {
		c := GroupColor(i, len(groups))
		for _, id := range g.TileIDs {
			if _, taken := out[id]; !taken {
				out[id] = c
			}
		}
	}
	return out
}

func drawFrame(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	u := image.NewUniform(c)
	w := min(borderWidth, r.Dx()/2, r.Dy()/2)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

func labelText(l Label, t manifest.Tile) string {
	switch l {
	case LabelIndex:
		return fmt.Sprintf("%03d", t.ID)
	case LabelXY:
		return fmt.Sprintf("(%d,%d)", t.Cell.X, t.Cell.Y)
	case LabelIndexXY:
		return fmt.Sprintf("%03d (%d,%d)", t.ID, t.Cell.X, t.Cell.Y)
	default:
		return ""
	}
}
