// Package imagecache serves card artwork from a bounded in-memory LRU tier
// backed by a persistent zip archive, and downloads missing artwork.
package imagecache

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"

	// Registered image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	lru "github.com/hashicorp/golang-lru"
	_ "golang.org/x/image/webp"
)

// DefaultCapacity is the default number of decoded images held in memory.
const DefaultCapacity = 50

// Image is a decoded card image together with its original bytes.
type Image struct {
	Key    string
	Format string // "jpeg", "png", ...
	Data   []byte
	Bitmap image.Image
}

// Decode decodes raw image bytes stored under key.
func Decode(key string, data []byte) (*Image, error) {
	bitmap, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", key, err)
	}
	return &Image{Key: key, Format: format, Data: data, Bitmap: bitmap}, nil
}

// Store is the persistent tier behind the cache.
type Store interface {
	Contains(key string) bool
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

// Options configures the image cache.
type Options struct {
	Capacity int // Maximum images held in memory (default 50)
	Logger   *slog.Logger
}

// Cache is a read-through, write-through two-tier image cache. The memory
// tier holds at most Capacity decoded images and evicts the least recently
// used one; the store tier is never evicted.
type Cache struct {
	store    Store
	ram      *lru.Cache
	capacity int
	logger   *slog.Logger
}

// NewCache creates an image cache in front of store.
func NewCache(store Store, options Options) (*Cache, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if options.Capacity == 0 {
		options.Capacity = DefaultCapacity
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	c := &Cache{
		store:    store,
		capacity: options.Capacity,
		logger:   options.Logger,
	}

	ram, err := lru.NewWithEvict(options.Capacity, func(key, _ interface{}) {
		c.logger.Debug("evicted image from memory", "key", key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory tier: %w", err)
	}
	c.ram = ram

	return c, nil
}

// Contains reports whether key is held in either tier. It does not change
// recency.
func (c *Cache) Contains(key string) bool {
	return c.ram.Contains(key) || c.store.Contains(key)
}

// InMemory reports whether key is currently held in the memory tier.
func (c *Cache) InMemory(key string) bool {
	return c.ram.Contains(key)
}

// Get returns the image for key and marks it most recently used. Images
// found only in the store are decoded and promoted into memory.
func (c *Cache) Get(key string) (*Image, error) {
	if v, ok := c.ram.Get(key); ok {
		return v.(*Image), nil
	}

	data, err := c.store.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &FetchError{Key: key, Err: err}
	}

	img, err := Decode(key, data)
	if err != nil {
		return nil, &FetchError{Key: key, Err: err}
	}

	c.ram.Add(key, img)
	c.logger.Debug("promoted image from archive", "key", key)
	return img, nil
}

// Put stores img under key in both tiers unless key is already known, in
// which case the first stored image is kept. A failed archive write is
// returned as *ArchiveWriteError after the memory tier has been updated.
func (c *Cache) Put(key string, img *Image) error {
	if c.Contains(key) {
		return nil
	}

	storeErr := c.store.Put(key, img.Data)
	c.ram.Add(key, img)

	if storeErr != nil {
		var writeErr *ArchiveWriteError
		if errors.As(storeErr, &writeErr) {
			return writeErr
		}
		return &ArchiveWriteError{Key: key, Err: storeErr}
	}
	return nil
}

// Stats contains statistics about the cache.
type Stats struct {
	InMemory int
	Capacity int
}

// Stats returns statistics about the memory tier.
func (c *Cache) Stats() Stats {
	return Stats{
		InMemory: c.ram.Len(),
		Capacity: c.capacity,
	}
}
