package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	magic uint32 = 67297350

	// Version is the on-disk format with plain record payloads.
	Version uint32 = 2
	// VersionCompressed is the on-disk format with zstd-compressed
	// record payloads. Files written under one version cannot be read
	// under the other.
	VersionCompressed uint32 = 3
)

const (
	chunkHeaderSize = 12 // magic + version + count
	frameHeaderSize = 8  // checksum + length
)

// Codec converts an ordered sequence of records of type T to a byte
// payload and back. The zero value is ready to use: records are
// marshalled as JSON and stored uncompressed. Fields must be set before
// the first call to Encode or Decode and not changed after.
type Codec[T any] struct {
	// Marshal and Unmarshal serialize a single record. If nil,
	// encoding/json is used.
	Marshal   func(v T) ([]byte, error)
	Unmarshal func(d []byte, v *T) error

	// Compress stores zstd-compressed record payloads. It selects
	// VersionCompressed as the format version, so data written with
	// Compress set cannot be decoded without it (and vice versa).
	Compress bool
}

func (c Codec[T]) version() uint32 {
	if c.Compress {
		return VersionCompressed
	}
	return Version
}

func (c Codec[T]) marshalRecord(v T) ([]byte, error) {
	if c.Marshal != nil {
		return c.Marshal(v)
	}
	return json.Marshal(v)
}

func (c Codec[T]) unmarshalRecord(d []byte, v *T) error {
	if c.Unmarshal != nil {
		return c.Unmarshal(d, v)
	}
	return json.Unmarshal(d, v)
}

// Encode serializes records into a single self-contained chunk. Encoding
// preserves order: Decode returns records in the sequence given here.
// Encoding zero records is legal and produces a header-only chunk.
func (c Codec[T]) Encode(records []T) ([]byte, error) {
	if uint64(len(records)) > math.MaxUint32 {
		return nil, ErrTooLarge
	}
	var buf bytes.Buffer
	writeUint32(&buf, magic)
	writeUint32(&buf, c.version())
	writeUint32(&buf, uint32(len(records)))
	for i := range records {
		d, err := c.marshalRecord(records[i])
		if err != nil {
			return nil, err
		}
		if c.Compress {
			d = zstdCompress(d)
		}
		if uint64(len(d)) > math.MaxUint32 {
			return nil, ErrTooLarge
		}
		writeUint32(&buf, crc32.ChecksumIEEE(d))
		writeUint32(&buf, uint32(len(d)))
		buf.Write(d)
	}
	return buf.Bytes(), nil
}

// Decode parses one or more chunks produced by Encode and returns their
// records concatenated in storage order.
//
// The version of every chunk is validated before its frames are parsed;
// a mismatch fails with *VersionError and no records. A frame whose
// checksum does not match is still decoded if possible, and after the
// whole payload has been read Decode fails with *ChecksumError carrying
// everything it recovered.
//
// Empty input has no header to validate and fails with ErrHeader;
// callers that want to treat "no bytes" as "no data" must check before
// calling.
func (c Codec[T]) Decode(d []byte) ([]T, error) {
	if len(d) < chunkHeaderSize || binary.LittleEndian.Uint32(d) != magic {
		return nil, ErrHeader
	}
	want := c.version()
	var records []T
	var poisoned *ChecksumError[T]
	for len(d) > 0 {
		if len(d) < chunkHeaderSize {
			return nil, &MalformedError{Reason: "truncated chunk header"}
		}
		if binary.LittleEndian.Uint32(d) != magic {
			return nil, ErrHeader
		}
		if v := binary.LittleEndian.Uint32(d[4:]); v != want {
			return nil, &VersionError{Found: v, Expected: want}
		}
		count := binary.LittleEndian.Uint32(d[8:])
		d = d[chunkHeaderSize:]
		for ; count > 0; count-- {
			if len(d) < frameHeaderSize {
				return nil, &MalformedError{Reason: "truncated frame header"}
			}
			saved := binary.LittleEndian.Uint32(d)
			n := int(binary.LittleEndian.Uint32(d[4:]))
			d = d[frameHeaderSize:]
			if n > len(d) {
				return nil, &MalformedError{
					Reason: fmt.Sprintf("frame of %d bytes but only %d remain", n, len(d)),
				}
			}
			payload := d[:n]
			d = d[n:]
			if computed := crc32.ChecksumIEEE(payload); computed != saved {
				if poisoned == nil {
					poisoned = &ChecksumError[T]{Saved: saved, Computed: computed}
				}
			}
			if c.Compress {
				var err error
				payload, err = zstdDecompress(payload)
				if err != nil {
					return nil, &MalformedError{Reason: "corrupt compressed frame", Err: err}
				}
			}
			var rec T
			if err := c.unmarshalRecord(payload, &rec); err != nil {
				return nil, &MalformedError{Reason: "record does not unmarshal", Err: err}
			}
			records = append(records, rec)
		}
	}
	if poisoned != nil {
		poisoned.records = records
		return nil, poisoned
	}
	return records, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
)

// both are safe for concurrent EncodeAll/DecodeAll use, so one of each
// is shared by all codecs
func zstdInit() {
	var err error
	zstdEnc, err = zstd.NewWriter(nil)
	panicIfErr(err)
	zstdDec, err = zstd.NewReader(nil)
	panicIfErr(err)
}

func zstdCompress(d []byte) []byte {
	zstdOnce.Do(zstdInit)
	return zstdEnc.EncodeAll(d, nil)
}

func zstdDecompress(d []byte) ([]byte, error) {
	zstdOnce.Do(zstdInit)
	return zstdDec.DecodeAll(d, nil)
}

func panicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}
