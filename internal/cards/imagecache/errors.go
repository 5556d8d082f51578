package imagecache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key is in neither cache tier.
	ErrNotFound = errors.New("image not found")

	// ErrArchiveLocked is returned when another process holds the archive.
	ErrArchiveLocked = errors.New("image archive is locked by another process")
)

// ArchiveWriteError reports a failed write to the persistent archive. The
// in-memory tier still holds the image when Cache.Put returns it.
type ArchiveWriteError struct {
	Key string
	Err error
}

// Error implements the error interface for ArchiveWriteError.
func (e *ArchiveWriteError) Error() string {
	return fmt.Sprintf("failed to archive image %s: %v", e.Key, e.Err)
}

func (e *ArchiveWriteError) Unwrap() error { return e.Err }

// FetchError reports a failure to download or decode card artwork.
type FetchError struct {
	Key string
	URL string
	Err error
}

// Error implements the error interface for FetchError.
func (e *FetchError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("failed to fetch image %s from %s: %v", e.Key, e.URL, e.Err)
	}
	return fmt.Sprintf("failed to load image %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
