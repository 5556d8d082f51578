package imagecache

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

// PlaceholderKey identifies the card back image.
const PlaceholderKey = "card-back"

//go:embed assets/card_back.png
var cardBackPNG []byte

var (
	placeholderOnce sync.Once
	placeholder     *Image
	placeholderErr  error
)

// Placeholder returns the card back shown for cards without artwork.
func Placeholder() (*Image, error) {
	placeholderOnce.Do(func() {
		placeholder, placeholderErr = Decode(PlaceholderKey, cardBackPNG)
	})
	return placeholder, placeholderErr
}

// FetcherOptions configures artwork downloads.
type FetcherOptions struct {
	Language string        // Remote language name used to pick localized art
	Timeout  time.Duration // HTTP request timeout
	Logger   *slog.Logger
}

// Fetcher resolves card artwork through the cache, downloading it on a miss.
type Fetcher struct {
	cache      *Cache
	httpClient *http.Client
	language   string
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher backed by cache.
func NewFetcher(cache *Cache, options FetcherOptions) *Fetcher {
	if options.Timeout == 0 {
		options.Timeout = 30 * time.Second
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Fetcher{
		cache: cache,
		httpClient: &http.Client{
			Timeout: options.Timeout,
		},
		language: options.Language,
		logger:   options.Logger,
	}
}

// Image returns the artwork of rec. Localized art is preferred, then the
// canonical art, then the card back placeholder when the record has no art.
//
// Download failures are returned as *FetchError and are not cached. If the
// image was downloaded but could not be archived, the image is returned
// together with an *ArchiveWriteError.
func (f *Fetcher) Image(ctx context.Context, rec *cards.Record) (*Image, error) {
	src, ok := rec.LocalizedImage(f.language)
	if !ok {
		return Placeholder()
	}

	if f.cache.Contains(src.Key) {
		return f.cache.Get(src.Key)
	}

	data, err := f.download(ctx, src.URL)
	if err != nil {
		return nil, &FetchError{Key: src.Key, URL: src.URL, Err: err}
	}

	img, err := Decode(src.Key, data)
	if err != nil {
		return nil, &FetchError{Key: src.Key, URL: src.URL, Err: err}
	}

	f.logger.Debug("downloaded card image",
		"card", rec.Identity.String(),
		"key", src.Key,
		"format", img.Format,
		"bytes", len(data))

	if err := f.cache.Put(src.Key, img); err != nil {
		return img, err
	}
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
