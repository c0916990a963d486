package imageio

import (
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilekit/pkg/errors"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
			}
		}
	}
	return img
}

func TestWriteReadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tile.png")
	require.NoError(t, WritePNG(path, checker()))

	img, err := ReadPNG(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, [4]uint32{200 * 0x101, 10 * 0x101, 10 * 0x101, 0xffff}, [4]uint32{r, g, b, a})
	_, _, _, a = img.At(1, 0).RGBA()
	assert.Zero(t, a)
}

func TestReadPNGMissing(t *testing.T) {
	_, err := ReadPNG(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestSheetStoreDecodesOnce(t *testing.T) {
	var reads atomic.Int32
	store, err := newSheetStore(2, func(string) (image.Image, error) {
		reads.Add(1)
		return checker(), nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load("sheets/../sheets/a.png")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err = store.Load("sheets/a.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), reads.Load())
	assert.Equal(t, 1, store.Len())
}

func TestSheetStoreEvicts(t *testing.T) {
	var reads atomic.Int32
	store, err := newSheetStore(1, func(string) (image.Image, error) {
		reads.Add(1)
		return checker(), nil
	})
	require.NoError(t, err)

	for _, p := range []string{"a.png", "b.png", "a.png"} {
		_, err := store.Load(p)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), reads.Load())
}
