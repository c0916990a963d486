package pixel

import (
	"image"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/manifest"
)

// Source resolves a manifest tile id to its pixel buffer.
type Source interface {
	Tile(id int) (*Buffer, error)
}

// SheetLoader returns the decoded sheet image stored at path.
type SheetLoader interface {
	Load(path string) (image.Image, error)
}

// Index is a read-only id → buffer table built once from a manifest.
// It is safe for concurrent use.
type Index struct {
	tiles map[int]*Buffer
}

// NewIndex crops every manifest rectangle out of its source sheet.
// When the manifest was sliced with transparent-white normalization the same
// normalization is applied to each crop.
func NewIndex(m *manifest.Manifest, sheets SheetLoader) (*Index, error) {
	idx := &Index{tiles: make(map[int]*Buffer, m.Len())}
	for _, t := range m.Tiles() {
		sheet, err := sheets.Load(t.SourcePath)
		if err != nil {
			return nil, err
		}
		if !t.Rect.In(sheet.Bounds().Sub(sheet.Bounds().Min)) {
			return nil, errors.New(errors.ErrCodeInvalidManifest,
				"rect %v lies outside sheet %s (%v)", t.Rect, t.SourcePath, sheet.Bounds().Size()).Tiles(t.ID)
		}
		buf := FromImage(subImage(sheet, t.Rect.Add(sheet.Bounds().Min)))
		if m.TransparentWhite {
			buf = TransparentWhite(buf)
		}
		idx.tiles[t.ID] = buf
	}
	return idx, nil
}

// NewMapIndex wraps an in-memory id → buffer map.
func NewMapIndex(tiles map[int]*Buffer) *Index {
	cp := make(map[int]*Buffer, len(tiles))
	for id, b := range tiles {
		cp[id] = b
	}
	return &Index{tiles: cp}
}

// Tile returns the buffer for id.
func (idx *Index) Tile(id int) (*Buffer, error) {
	b, ok := idx.tiles[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeManifestLookup, "tile %d is not in the manifest", id).Tiles(id)
	}
	return b, nil
}

// Len returns the number of indexed tiles.
func (idx *Index) Len() int { return len(idx.tiles) }

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func subImage(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := range r.Dy() {
		for x := range r.Dx() {
			dst.Set(x, y, img.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}

var _ Source = (*Index)(nil)
