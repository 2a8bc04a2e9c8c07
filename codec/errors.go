package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrHeader means the data does not start with a valid chunk
	// header. The file was likely not written by this package.
	ErrHeader = errors.New("invalid file header")

	// ErrTooLarge means a marshalled record (or the record count)
	// does not fit in the format's uint32 fields.
	ErrTooLarge = errors.New("data too large: size exceeds max uint32")
)

// VersionError is returned by Decode when the format version embedded
// in the data does not match the version the Codec is configured for.
// No records are decoded; cross-version reads are unsupported and
// callers must re-create the file to change versions.
type VersionError struct {
	Found    uint32
	Expected uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("incompatible file version: expected %d, found %d", e.Expected, e.Found)
}

// MalformedError is returned by Decode when bytes are present but do
// not parse under the expected layout: a truncated frame, trailing
// garbage, or a record payload that fails to unmarshal.
type MalformedError struct {
	Reason string
	Err    error // underlying decompress/unmarshal error, if any
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed data: %s: %s", e.Reason, e.Err)
	}
	return "malformed data: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }

// ChecksumError is returned by Decode when a frame's stored checksum
// does not match its payload. Decoding continues past the bad frame, so
// the error carries every record that could still be recovered; use
// Records to salvage them if some data is better than none. Saved and
// Computed describe the first mismatch encountered.
type ChecksumError[T any] struct {
	Saved    uint32
	Computed uint32

	records []T
}

func (e *ChecksumError[T]) Error() string {
	return fmt.Sprintf("data corruption encountered (%08x != %08x)", e.Computed, e.Saved)
}

// Records returns the records recovered from the corrupted payload, in
// storage order. They may or may not be in a usable state.
func (e *ChecksumError[T]) Records() []T {
	return e.records
}
