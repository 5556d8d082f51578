package imagecache

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/flate"
)

// Archive is the persistent tier: a single zip file whose entry names are
// image keys and whose contents are the original image bytes. Entries are
// never replaced or removed.
//
// A process must hold at most one Archive per file; the file is guarded by
// an advisory lock next to it.
type Archive struct {
	path    string
	lock    *flock.Flock
	reader  *zip.ReadCloser
	entries map[string]*zip.File
	logger  *slog.Logger
}

// OpenArchive opens the archive at path, creating an empty one if the file
// does not exist.
func OpenArchive(path string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !ok {
		return nil, ErrArchiveLocked
	}

	a := &Archive{
		path:   path,
		lock:   lock,
		logger: logger,
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := a.rewrite(nil, "", nil); err != nil {
			_ = lock.Unlock()
			return nil, fmt.Errorf("failed to create archive: %w", err)
		}
		logger.Info("created image archive", "path", path)
	}

	if err := a.reload(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return a, nil
}

// Contains reports whether key has been archived.
func (a *Archive) Contains(key string) bool {
	_, ok := a.entries[key]
	return ok
}

// Get returns the bytes stored under key, or ErrNotFound.
func (a *Archive) Get(key string) ([]byte, error) {
	f, ok := a.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archived image %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived image %s: %w", key, err)
	}
	return data, nil
}

// Put archives data under key. If key already exists the call does nothing.
// The entry is appended to the archive file, which is synced before Put
// returns. Entries already archived are not rewritten.
func (a *Archive) Put(key string, data []byte) error {
	if a.Contains(key) {
		return nil
	}

	err := a.appendEntry(key, data)
	if errors.Is(err, errNeedsRewrite) {
		a.logger.Info("rewriting image archive", "path", a.path, "entries", len(a.entries))
		var existing []*zip.File
		if a.reader != nil {
			existing = a.reader.File
		}
		err = a.rewrite(existing, key, data)
	}
	if err != nil {
		if reloadErr := a.reload(); reloadErr != nil {
			a.logger.Warn("failed to reopen image archive", "path", a.path, "error", reloadErr)
		}
		return &ArchiveWriteError{Key: key, Err: err}
	}
	if err := a.reload(); err != nil {
		return &ArchiveWriteError{Key: key, Err: err}
	}

	a.logger.Debug("archived image", "key", key, "bytes", len(data), "entries", len(a.entries))
	return nil
}

// Keys returns the archived keys in lexical order.
func (a *Archive) Keys() []string {
	keys := make([]string, 0, len(a.entries))
	for k := range a.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of archived images.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Path returns the archive file path.
func (a *Archive) Path() string {
	return a.path
}

// Close releases the archive file and its lock.
func (a *Archive) Close() error {
	var closeErr error
	if a.reader != nil {
		closeErr = a.reader.Close()
		a.reader = nil
	}
	a.entries = nil
	if err := a.lock.Unlock(); err != nil && closeErr == nil {
		closeErr = fmt.Errorf("release archive lock: %w", err)
	}
	return closeErr
}

// rewrite writes existing entries (copied without recompression) plus an
// optional new entry to a temp file, syncs it and moves it over the archive.
func (a *Archive) rewrite(existing []*zip.File, key string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(a.path), filepath.Base(a.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	fail := func(err error) error {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return err
	}

	w := zip.NewWriter(tempFile)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	for _, f := range existing {
		if err := w.Copy(f); err != nil {
			return fail(fmt.Errorf("failed to copy entry %s: %w", f.Name, err))
		}
	}

	if key != "" {
		entry, err := w.CreateHeader(&zip.FileHeader{
			Name:     key,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return fail(fmt.Errorf("failed to create entry: %w", err))
		}
		if _, err := entry.Write(data); err != nil {
			return fail(fmt.Errorf("failed to write entry: %w", err))
		}
	}

	if err := w.Close(); err != nil {
		return fail(fmt.Errorf("failed to finish archive: %w", err))
	}
	if err := tempFile.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync archive: %w", err))
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// The reader must be closed before the file can be replaced on Windows.
	if a.reader != nil {
		_ = a.reader.Close()
		a.reader = nil
	}

	if err := os.Rename(tempPath, a.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to move archive: %w", err)
	}
	return nil
}

// reload reopens the archive file and rebuilds the key index.
func (a *Archive) reload() error {
	if a.reader != nil {
		_ = a.reader.Close()
		a.reader = nil
	}

	reader, err := zip.OpenReader(a.path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", a.path, err)
	}
	reader.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	entries := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		if _, dup := entries[f.Name]; !dup {
			entries[f.Name] = f
		}
	}

	a.reader = reader
	a.entries = entries
	return nil
}
