package imageio

import (
	"image"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/tilekit/pkg/observability"
)

// DefaultStoreSize is the number of decoded sheets kept by [NewSheetStore]
// when size is not positive.
const DefaultStoreSize = 16

// SheetStore is a bounded cache of decoded sheet images keyed by clean path.
// Concurrent loads of the same path decode it once.
type SheetStore struct {
	cache *lru.Cache[string, image.Image]
	read  func(string) (image.Image, error)

	mu       sync.Mutex
	inflight map[string]*load
}

type load struct {
	done chan struct{}
	img  image.Image
	err  error
}

// NewSheetStore creates a store holding up to size decoded sheets.
func NewSheetStore(size int) (*SheetStore, error) {
	return newSheetStore(size, ReadPNG)
}

func newSheetStore(size int, read func(string) (image.Image, error)) (*SheetStore, error) {
	if size <= 0 {
		size = DefaultStoreSize
	}
	cache, err := lru.New[string, image.Image](size)
	if err != nil {
		return nil, err
	}
	return &SheetStore{cache: cache, read: read, inflight: make(map[string]*load)}, nil
}

// Load returns the decoded sheet at path, decoding it on first use.
func (s *SheetStore) Load(path string) (image.Image, error) {
	key := filepath.Clean(path)
	if img, ok := s.cache.Get(key); ok {
		observability.Sheet().OnSheetHit(key)
		return img, nil
	}

	s.mu.Lock()
	if l, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		<-l.done
		return l.img, l.err
	}
	if img, ok := s.cache.Get(key); ok {
		s.mu.Unlock()
		return img, nil
	}
	l := &load{done: make(chan struct{})}
	s.inflight[key] = l
	s.mu.Unlock()

	start := time.Now()
	l.img, l.err = s.read(key)
	observability.Sheet().OnSheetDecode(key, time.Since(start), l.err)
	if l.err == nil {
		s.cache.Add(key, l.img)
	}

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
	close(l.done)
	return l.img, l.err
}

// Len returns the number of cached sheets.
func (s *SheetStore) Len() int { return s.cache.Len() }
