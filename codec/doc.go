// Package codec converts an ordered collection of records to a byte
// payload and back, under a fixed on-disk format version.
//
// # Format
//
// A payload is one or more chunks back to back. Each chunk is:
//
//	magic    uint32  // 67297350
//	version  uint32  // Version or VersionCompressed
//	count    uint32  // number of frames that follow
//	frames   count times:
//	  checksum uint32  // crc32 (IEEE) of the stored payload
//	  length   uint32  // payload size in bytes
//	  payload  []byte
//
// All integers are little-endian. With VersionCompressed the stored
// payload is the zstd-compressed record; the checksum always covers the
// bytes as stored.
//
// Decode validates the version before touching any frame and fails with
// [VersionError] on a mismatch. Cross-version reads are unsupported.
//
// # Basic Usage
//
//	var c codec.Codec[Message]
//	d, err := c.Encode(msgs)
//	// ...
//	msgs2, err := c.Decode(d)
//
// The zero value marshals each record as JSON. Set Marshal/Unmarshal to
// plug in a different per-record serialization.
package codec
