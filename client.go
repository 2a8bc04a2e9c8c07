package crio

import (
	"errors"
	"io/fs"
	"os"

	"github.com/tropicbliss/crio/atomicfile"
	"github.com/tropicbliss/crio/codec"
)

// Client persists an ordered collection of records of type T to one
// file. It is bound to a path and a write mode at construction and
// holds no other state; construct once and reuse across calls.
//
// In overwrite mode (appendMode false) every WriteMany replaces the
// whole file atomically: data goes to a temp file in the same directory
// which is renamed over the target, so a crash mid-write leaves the old
// content intact. In append mode new records are added after the
// existing ones and Load returns the concatenation of all writes in
// call order; appends go directly to the file with an fsync, so a crash
// mid-append can leave a truncated tail that the next Load reports as
// malformed.
type Client[T any] struct {
	// Codec controls record serialization and compression. Adjust it
	// after New and before the first Write/WriteMany/Load, not later:
	// changing the configuration invalidates data already on disk.
	Codec codec.Codec[T]

	path       string
	appendMode bool
}

// New binds a client to path. If no file exists there one is created
// empty, so a Load right after New reports "no data" rather than a
// missing file. Existing content is never truncated at construction;
// appendMode only decides what WriteMany does with it.
func New[T any](path string, appendMode bool) (*Client[T], error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if err = f.Close(); err != nil {
		return nil, err
	}
	return &Client[T]{path: path, appendMode: appendMode}, nil
}

// Write persists a single record. The file ends up byte-for-byte the
// same as WriteMany with a one-element collection.
func (c *Client[T]) Write(record T) error {
	return c.WriteMany([]T{record})
}

// WriteMany persists records in order. In overwrite mode the previous
// file content is fully discarded, even when records is empty; in
// append mode an empty records is a no-op.
func (c *Client[T]) WriteMany(records []T) error {
	if c.appendMode && len(records) == 0 {
		// nothing to add; an empty chunk would only pad the file
		return nil
	}
	d, err := c.Codec.Encode(records)
	if err != nil {
		return err
	}
	if c.appendMode {
		return appendToFile(c.path, d)
	}
	return replaceFile(c.path, d)
}

// Load reads back everything persisted to the bound path. A missing
// file and a zero-length file both mean "nothing persisted yet" and
// return (nil, nil); Load never creates, truncates or deletes the file.
//
// Decode failures pass through from the codec: *codec.VersionError when
// the file was written under a different format version,
// *codec.MalformedError when bytes don't parse, and
// *codec.ChecksumError when content was corrupted (with whatever
// records could be salvaged).
func (c *Client[T]) Load() ([]T, error) {
	d, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(d) == 0 {
		return nil, nil
	}
	records, err := c.Codec.Decode(d)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		// a header-only file, e.g. after an overwrite with no records
		return nil, nil
	}
	return records, nil
}

func appendToFile(path string, d []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if _, err = f.Write(d); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func replaceFile(path string, d []byte) error {
	w, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer w.RemoveIfNotClosed()

	if _, err = w.Write(d); err != nil {
		return err
	}
	return w.Close()
}
