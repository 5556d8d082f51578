// Package session turns user intents into collection and image cache
// operations. A Session is driven by one caller at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
	"github.com/ramonehamilton/mtg-binder/internal/cards/imagecache"
	"github.com/ramonehamilton/mtg-binder/internal/collection"
	"github.com/ramonehamilton/mtg-binder/internal/collection/codec"
	"github.com/ramonehamilton/mtg-binder/internal/storage"
)

// ImageSource resolves the artwork of a card.
type ImageSource interface {
	Image(ctx context.Context, rec *cards.Record) (*imagecache.Image, error)
}

// SetCatalog reports which set codes are known locally.
type SetCatalog interface {
	Get(ctx context.Context, code string) (*storage.Set, error)
	Count(ctx context.Context) (int, error)
}

// Config configures a Session.
type Config struct {
	Registry *collection.Registry
	Codec    *codec.Codec
	Images   ImageSource // optional; Select fails without it
	Catalog  SetCatalog  // optional; enables unknown set warnings
	Logger   *slog.Logger
}

// Row is one line of the collection view.
type Row struct {
	Index int
	Label string
	Entry *collection.Entry
}

type shownImage struct {
	id    cards.Identity
	image *imagecache.Image
}

// Session holds the collection being edited and the card currently shown.
type Session struct {
	registry *collection.Registry
	codec    *codec.Codec
	images   ImageSource
	catalog  SetCatalog
	logger   *slog.Logger

	shown *shownImage
	dirty bool
}

// New creates a Session.
func New(config Config) (*Session, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Codec == nil {
		config.Codec = codec.New(config.Logger)
	}

	return &Session{
		registry: config.Registry,
		codec:    config.Codec,
		images:   config.Images,
		catalog:  config.Catalog,
		logger:   config.Logger,
	}, nil
}

// Registry returns the collection registry.
func (s *Session) Registry() *collection.Registry {
	return s.registry
}

// Dirty reports whether the collection changed since it was last saved or
// loaded.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Add adds one copy of the card identified by text, such as "WAR056".
func (s *Session) Add(ctx context.Context, text string) (*collection.Entry, error) {
	if id, err := collection.ParseIdentifier(text); err == nil {
		s.warnUnknownSet(ctx, id.SetCode)
	}

	e, err := s.registry.AddByIdentifier(ctx, text)
	if err != nil {
		return nil, err
	}
	s.dirty = true
	return e, nil
}

// Choose adds one copy of rec. It resolves an AmbiguousResultError returned
// by Add once the user picked one of its candidates.
func (s *Session) Choose(ctx context.Context, rec cards.Record) (*collection.Entry, error) {
	e, err := s.registry.AddRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.dirty = true
	return e, nil
}

func (s *Session) warnUnknownSet(ctx context.Context, code string) {
	if s.catalog == nil {
		return
	}

	n, err := s.catalog.Count(ctx)
	if err != nil {
		s.logger.Debug("set catalog unavailable", "error", err)
		return
	}
	if n == 0 {
		return
	}

	set, err := s.catalog.Get(ctx, code)
	if err != nil {
		s.logger.Debug("set catalog lookup failed", "set", code, "error", err)
		return
	}
	if set == nil {
		s.logger.Warn("set code not in local catalog", "set", code)
	}
}

// Increment adds a copy of the card shown at row and redraws the row.
func (s *Session) Increment(ctx context.Context, row int, render collection.RowRenderer) (collection.Outcome, error) {
	return s.update(ctx, row, s.registry.IncrementMutation(), render)
}

// Decrement removes a copy of the card shown at row. The last copy is only
// removed when confirm approves.
func (s *Session) Decrement(ctx context.Context, row int, confirm collection.Confirmer, render collection.RowRenderer) (collection.Outcome, error) {
	return s.update(ctx, row, s.registry.DecrementMutation(confirm), render)
}

func (s *Session) update(ctx context.Context, row int, mutate collection.Mutation, render collection.RowRenderer) (collection.Outcome, error) {
	e, err := s.registry.Selected(row)
	if err != nil {
		return collection.Unchanged, err
	}
	id := e.Identity()

	outcome, err := s.registry.UpdateRow(ctx, row, mutate, render)
	if outcome != collection.Unchanged {
		s.dirty = true
	}
	if outcome == collection.Removed && s.shown != nil && s.shown.id == id {
		s.shown = nil
	}
	return outcome, err
}

// SetSortKey changes the view order.
func (s *Session) SetSortKey(ctx context.Context, key collection.SortKey) error {
	return s.registry.SetSortKey(ctx, key)
}

// SetFilter restricts the view to cards whose text contains query.
func (s *Session) SetFilter(ctx context.Context, query string) error {
	return s.registry.SetFilterQuery(ctx, query)
}

// Rows returns the current view with display labels.
func (s *Session) Rows(ctx context.Context) ([]Row, error) {
	view := s.registry.View()
	rows := make([]Row, len(view))
	for i, e := range view {
		label, err := s.registry.Label(ctx, e)
		if err != nil {
			return nil, err
		}
		rows[i] = Row{Index: i, Label: label, Entry: e}
	}
	return rows, nil
}

// Select returns the artwork of the card shown at row. Selecting the card
// already on display returns the same image without another lookup.
//
// When the image was downloaded but could not be archived, both the image
// and the *imagecache.ArchiveWriteError are returned.
func (s *Session) Select(ctx context.Context, row int) (*imagecache.Image, error) {
	if s.images == nil {
		return nil, fmt.Errorf("no image source configured")
	}

	e, err := s.registry.Selected(row)
	if err != nil {
		return nil, err
	}

	id := e.Identity()
	if s.shown != nil && s.shown.id == id {
		return s.shown.image, nil
	}

	img, err := s.images.Image(ctx, e.Record)
	if img != nil {
		s.shown = &shownImage{id: id, image: img}
	}
	return img, err
}

// Save writes the whole owned collection to path, together with the resolved
// twins of owned split cards. The file is replaced atomically.
func (s *Session) Save(path string) error {
	data, err := s.codec.Encode(s.registry.Entries(), s.registry.Twins()...)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}

	s.dirty = false
	s.logger.Info("collection saved", "path", path, "entries", s.registry.Len(), "bytes", len(data))
	return nil
}

// Load replaces the collection with the one stored at path. On any error,
// including a corrupt file, the current collection is left untouched.
func (s *Session) Load(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	stored, err := s.codec.Decode(data)
	if err != nil {
		return err
	}

	if err := s.registry.Replace(ctx, stored.Entries, stored.Twins...); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	s.shown = nil
	s.dirty = false
	s.logger.Info("collection loaded", "path", path, "entries", s.registry.Len())
	return nil
}

// LoadIfExists loads path unless the file does not exist yet.
func (s *Session) LoadIfExists(ctx context.Context, path string) error {
	err := s.Load(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("no collection file yet", "path", path)
		return nil
	}
	return err
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
