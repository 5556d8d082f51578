package imagecache

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/flate"
)

const (
	directoryEndSignature = 0x06054b50
	zip64LocatorSignature = 0x07064b50
	directoryEndLen       = 22
	zip64LocatorLen       = 20
	maxCommentLen         = 0xffff
)

// errNeedsRewrite marks archives that cannot be appended to in place, such
// as zip64 or multi-disk files. Put falls back to a full rewrite.
var errNeedsRewrite = errors.New("archive must be rewritten")

// directoryEnd is the end of central directory record of a zip file.
type directoryEnd struct {
	records         uint16
	directorySize   uint32
	directoryOffset uint32
}

// findDirectoryEnd locates the end record in tail, the last bytes of a zip
// file, and returns it with its position within tail.
func findDirectoryEnd(tail []byte) (directoryEnd, int, error) {
	for i := len(tail) - directoryEndLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(tail[i:]) != directoryEndSignature {
			continue
		}
		comment := int(binary.LittleEndian.Uint16(tail[i+20:]))
		if i+directoryEndLen+comment > len(tail) {
			continue
		}

		disk := binary.LittleEndian.Uint16(tail[i+4:])
		directoryDisk := binary.LittleEndian.Uint16(tail[i+6:])
		onDisk := binary.LittleEndian.Uint16(tail[i+8:])
		end := directoryEnd{
			records:         binary.LittleEndian.Uint16(tail[i+10:]),
			directorySize:   binary.LittleEndian.Uint32(tail[i+12:]),
			directoryOffset: binary.LittleEndian.Uint32(tail[i+16:]),
		}

		if disk != 0 || directoryDisk != 0 || onDisk != end.records {
			return end, i, errNeedsRewrite
		}
		if end.records == 0xffff || end.directorySize == 0xffffffff || end.directoryOffset == 0xffffffff {
			return end, i, errNeedsRewrite
		}
		if i >= zip64LocatorLen && binary.LittleEndian.Uint32(tail[i-zip64LocatorLen:]) == zip64LocatorSignature {
			return end, i, errNeedsRewrite
		}
		return end, i, nil
	}
	return directoryEnd{}, 0, errors.New("zip end of central directory not found")
}

// readDirectoryEnd reads the end record of the zip file f of the given size.
func readDirectoryEnd(f io.ReaderAt, size int64) (directoryEnd, error) {
	n := int64(directoryEndLen + maxCommentLen)
	if n > size {
		n = size
	}
	tail := make([]byte, n)
	if _, err := f.ReadAt(tail, size-n); err != nil {
		return directoryEnd{}, fmt.Errorf("read archive directory: %w", err)
	}

	end, pos, err := findDirectoryEnd(tail)
	if err != nil {
		return end, err
	}
	if int64(end.directoryOffset)+int64(end.directorySize) > size-n+int64(pos) {
		return end, errors.New("archive directory overlaps its end record")
	}
	return end, nil
}

func appendDirectoryEnd(b []byte, end directoryEnd) []byte {
	b = binary.LittleEndian.AppendUint32(b, directoryEndSignature)
	b = binary.LittleEndian.AppendUint16(b, 0) // this disk
	b = binary.LittleEndian.AppendUint16(b, 0) // directory disk
	b = binary.LittleEndian.AppendUint16(b, end.records)
	b = binary.LittleEndian.AppendUint16(b, end.records)
	b = binary.LittleEndian.AppendUint32(b, end.directorySize)
	b = binary.LittleEndian.AppendUint32(b, end.directoryOffset)
	return binary.LittleEndian.AppendUint16(b, 0) // comment length
}

// encodeEntry writes a single-entry zip whose local header starts at offset
// and returns the entry bytes and its central directory record.
func encodeEntry(offset uint32, key string, data []byte) (entry, record []byte, err error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.SetOffset(int64(offset))
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	fw, err := w.CreateHeader(&zip.FileHeader{
		Name:     key,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create entry: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, nil, fmt.Errorf("failed to write entry: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to finish entry: %w", err)
	}

	out := buf.Bytes()
	end, _, err := findDirectoryEnd(out)
	if err != nil {
		return nil, nil, err
	}
	entryLen := int(end.directoryOffset - offset)
	return out[:entryLen], out[entryLen : entryLen+int(end.directorySize)], nil
}

// appendEntry adds key to the archive file in place. Existing entries are
// left where they are: the new entry overwrites the old central directory,
// which is then written back after it together with the new record.
func (a *Archive) appendEntry(key string, data []byte) error {
	f, err := os.OpenFile(a.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open archive for writing: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}
	end, err := readDirectoryEnd(f, info.Size())
	if err != nil {
		return err
	}

	directory := make([]byte, end.directorySize)
	if _, err := f.ReadAt(directory, int64(end.directoryOffset)); err != nil {
		return fmt.Errorf("read archive directory: %w", err)
	}

	entry, record, err := encodeEntry(end.directoryOffset, key, data)
	if err != nil {
		return err
	}

	records := uint64(end.records) + 1
	offset := uint64(end.directoryOffset) + uint64(len(entry))
	size := uint64(len(directory)) + uint64(len(record))
	if records >= 0xffff || offset >= 0xffffffff || size >= 0xffffffff {
		return errNeedsRewrite
	}

	tail := make([]byte, 0, len(entry)+int(size)+directoryEndLen)
	tail = append(tail, entry...)
	tail = append(tail, directory...)
	tail = append(tail, record...)
	tail = appendDirectoryEnd(tail, directoryEnd{
		records:         uint16(records),
		directorySize:   uint32(size),
		directoryOffset: uint32(offset),
	})

	if _, err := f.WriteAt(tail, int64(end.directoryOffset)); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if err := f.Truncate(int64(end.directoryOffset) + int64(len(tail))); err != nil {
		return fmt.Errorf("failed to truncate archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	return f.Close()
}
