package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
	"github.com/ramonehamilton/mtg-binder/internal/cards/imagecache"
	"github.com/ramonehamilton/mtg-binder/internal/cards/mtgio"
	"github.com/ramonehamilton/mtg-binder/internal/collection"
	"github.com/ramonehamilton/mtg-binder/internal/collection/codec"
	"github.com/ramonehamilton/mtg-binder/internal/config"
	"github.com/ramonehamilton/mtg-binder/internal/session"
	"github.com/ramonehamilton/mtg-binder/internal/storage"
	"github.com/ramonehamilton/mtg-binder/internal/version"
)

type globalFlags struct {
	config     string
	collection string
	debug      bool
}

type commandContext struct {
	flags *globalFlags

	config *config.Config
	logger *slog.Logger

	newLookup lookupFactory
}

// lookupFactory builds the remote card database client.
type lookupFactory func(cfg *config.Config, logger *slog.Logger) (cardService, error)

// cardService is the subset of the card database client the commands use.
type cardService interface {
	cards.Lookup
	Sets(ctx context.Context) ([]mtgio.Set, error)
}

func newCommandContext(flags *globalFlags, newLookup lookupFactory) *commandContext {
	return &commandContext{
		flags:     flags,
		newLookup: newLookup,
	}
}

func newRemoteClient(cfg *config.Config, logger *slog.Logger) (cardService, error) {
	timeout, err := cfg.RemoteTimeout()
	if err != nil {
		return nil, err
	}
	return mtgio.NewClient(mtgio.ClientOptions{
		BaseURL:           cfg.Remote.BaseURL,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Timeout:           timeout,
		UserAgent:         "mtg-binder/" + version.GetVersion(),
		Logger:            logger,
	}), nil
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if path := strings.TrimSpace(c.flags.config); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if c.flags.collection != "" {
		cfg.Collection.Path = c.flags.collection
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfg.Path(), err)
	}

	level := slog.LevelInfo
	if c.flags.debug || cfg.App.DebugMode {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	c.config = cfg
	return cfg, nil
}

func (c *commandContext) remote() (cardService, error) {
	return c.newLookup(c.config, c.logger)
}

// withCatalog opens the set catalog for the duration of fn.
func (c *commandContext) withCatalog(fn func(*storage.SetRepository) error) error {
	db, err := storage.Open(storage.DefaultConfig(c.config.Storage.DBPath))
	if err != nil {
		return fmt.Errorf("open set catalog: %w", err)
	}
	defer db.Close()
	return fn(db.Sets())
}

type sessionOptions struct {
	save    bool // write the collection back when it changed
	images  bool // open the image archive
	catalog bool // warn about set codes missing from the catalog
}

// withSession loads the collection, runs fn and saves the collection when
// opts.save is set and fn changed it.
func (c *commandContext) withSession(ctx context.Context, opts sessionOptions, fn func(*session.Session) error) error {
	cfg := c.config

	lang, err := cfg.LanguageName()
	if err != nil {
		return err
	}
	lookup, err := c.remote()
	if err != nil {
		return err
	}

	registry, err := collection.NewRegistry(collection.RegistryConfig{
		Arena:   cards.NewArena(cards.ArenaConfig{Lookup: lookup, Language: lang, Logger: c.logger}),
		Lookup:  lookup,
		SortKey: collection.SortKey(cfg.Collection.SortKey),
		Logger:  c.logger,
	})
	if err != nil {
		return err
	}

	sessionConfig := session.Config{
		Registry: registry,
		Codec:    codec.New(c.logger),
		Logger:   c.logger,
	}

	if opts.images {
		archive, err := imagecache.OpenArchive(cfg.Cache.ArchivePath, c.logger)
		if err != nil {
			return err
		}
		defer archive.Close()

		cache, err := imagecache.NewCache(archive, imagecache.Options{Capacity: cfg.Cache.RAMEntries, Logger: c.logger})
		if err != nil {
			return err
		}
		timeout, err := cfg.RemoteTimeout()
		if err != nil {
			return err
		}
		sessionConfig.Images = imagecache.NewFetcher(cache, imagecache.FetcherOptions{
			Language: lang,
			Timeout:  timeout,
			Logger:   c.logger,
		})
	}

	if opts.catalog {
		db, err := storage.Open(storage.DefaultConfig(cfg.Storage.DBPath))
		if err != nil {
			c.logger.Debug("set catalog unavailable", "error", err)
		} else {
			defer db.Close()
			sessionConfig.Catalog = db.Sets()
		}
	}

	s, err := session.New(sessionConfig)
	if err != nil {
		return err
	}
	if err := s.LoadIfExists(ctx, cfg.Collection.Path); err != nil {
		return err
	}

	fnErr := fn(s)
	if opts.save && s.Dirty() {
		if err := s.Save(cfg.Collection.Path); err != nil {
			if fnErr != nil {
				return fmt.Errorf("%w (save also failed: %v)", fnErr, err)
			}
			return err
		}
	}
	return fnErr
}

// rowOf returns the view row showing the card identified by text.
func rowOf(s *session.Session, text string) (int, error) {
	id, err := collection.ParseIdentifier(text)
	if err != nil {
		return 0, err
	}
	candidates := []cards.Identity{id}
	if !id.IsMultiFaced() {
		candidates = append(candidates, id.WithFace(cards.FaceA), id.WithFace(cards.FaceB))
	}
	view := s.Registry().View()
	for _, want := range candidates {
		for i, e := range view {
			if e.Identity() == want {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%s is not in the collection", id)
}
