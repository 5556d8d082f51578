package imagecache

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// pngBytes returns a small encoded PNG whose first pixel encodes seed.
func pngBytes(t *testing.T, seed int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: uint8(seed), G: 10, B: 20, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testImage(t *testing.T, key string, seed int) *Image {
	t.Helper()

	img, err := Decode(key, pngBytes(t, seed))
	if err != nil {
		t.Fatalf("Decode(%s): %v", key, err)
	}
	return img
}

// memStore is an in-memory Store that can be told to fail writes.
type memStore struct {
	data     map[string][]byte
	failPuts bool
	puts     int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Contains(key string) bool {
	_, ok := m.data[key]
	return ok
}

func (m *memStore) Get(key string) ([]byte, error) {
	d, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *memStore) Put(key string, data []byte) error {
	m.puts++
	if m.failPuts {
		return &ArchiveWriteError{Key: key, Err: errDiskFull}
	}
	if _, ok := m.data[key]; !ok {
		m.data[key] = data
	}
	return nil
}

type testError string

func (e testError) Error() string { return string(e) }

const errDiskFull = testError("disk full")
