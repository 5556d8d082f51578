// Package codec encodes the owned collection to the bytes stored in a
// collection file.
//
// The payload is a msgpack document with interned strings, compressed with
// zstd. Files written before compression was introduced hold the bare
// msgpack document; Decode accepts both.
package codec

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
	"github.com/ramonehamilton/mtg-binder/internal/collection"
)

// formatVersion is written into every document.
const formatVersion = 1

// document is the serialized form of a collection.
type document struct {
	Version int            `msgpack:"version"`
	Entries []entryDoc     `msgpack:"entries"`
	Twins   []cards.Record `msgpack:"twins,omitempty"`
}

type entryDoc struct {
	Card   cards.Record `msgpack:"card"`
	Amount int          `msgpack:"amount"`
}

// DecodeError reports a collection file that cannot be read.
type DecodeError struct {
	Err error
}

// Error implements the error interface for DecodeError.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("corrupt collection data: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Collection is a decoded collection file.
type Collection struct {
	Entries []collection.Entry
	// Twins holds the other halves of owned split cards that were resolved
	// when the file was written. Older files carry none.
	Twins []cards.Record
}

// Codec encodes and decodes collections.
type Codec struct {
	logger *slog.Logger
}

// New creates a Codec.
func New(logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{logger: logger}
}

// Encode serializes every owned entry, plus the known twins of owned split
// cards, and compresses the result.
func (c *Codec) Encode(entries []*collection.Entry, twins ...cards.Record) ([]byte, error) {
	raw, err := c.marshal(entries, twins)
	if err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("create compressor: %w", err)
	}
	defer func() { _ = enc.Close() }()

	return enc.EncodeAll(raw, nil), nil
}

// EncodeRaw serializes entries without compression, as older versions did.
func (c *Codec) EncodeRaw(entries []*collection.Entry, twins ...cards.Record) ([]byte, error) {
	return c.marshal(entries, twins)
}

func (c *Codec) marshal(entries []*collection.Entry, twins []cards.Record) ([]byte, error) {
	doc := document{
		Version: formatVersion,
		Entries: make([]entryDoc, 0, len(entries)),
	}
	for _, twin := range twins {
		if !twin.IsMultiFaced() {
			return nil, fmt.Errorf("card %s is not one half of a split card", twin.Identity)
		}
		doc.Twins = append(doc.Twins, twin)
	}
	for _, e := range entries {
		if e.Amount < 1 {
			return nil, fmt.Errorf("card %s has invalid amount %d", e.Identity(), e.Amount)
		}
		doc.Entries = append(doc.Entries, entryDoc{Card: *e.Record, Amount: e.Amount})
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	enc.UseCompactFloats(true)
	enc.UseInternedStrings(true)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("serialize collection: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a collection from data. Compressed and legacy uncompressed
// payloads are both accepted; anything else is a *DecodeError.
func (c *Codec) Decode(data []byte) (*Collection, error) {
	raw, err := decompress(data)
	if err != nil {
		c.logger.Info("collection data is not compressed, reading legacy format", "error", err)
		raw = data
	}

	var doc document
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.UseInternedStrings(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if doc.Version > formatVersion {
		return nil, &DecodeError{Err: fmt.Errorf("unsupported format version %d", doc.Version)}
	}

	entries := make([]collection.Entry, 0, len(doc.Entries))
	for _, in := range doc.Entries {
		if in.Amount < 1 {
			return nil, &DecodeError{Err: fmt.Errorf("card %s has invalid amount %d", in.Card.Identity, in.Amount)}
		}
		rec := in.Card
		entries = append(entries, collection.Entry{Record: &rec, Amount: in.Amount})
	}

	for _, twin := range doc.Twins {
		if !twin.IsMultiFaced() {
			return nil, &DecodeError{Err: fmt.Errorf("twin %s is not one half of a split card", twin.Identity)}
		}
	}
	return &Collection{Entries: entries, Twins: doc.Twins}, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return dec.DecodeAll(data, nil)
}
