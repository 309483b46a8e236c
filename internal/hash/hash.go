// Package hash wraps xxHash64 for payload checksums and column identifiers.
package hash

import "github.com/cespare/xxhash/v2"

// Checksum computes the xxHash64 of a payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Verify reports whether data hashes to want.
func Verify(data []byte, want uint64) bool {
	return xxhash.Sum64(data) == want
}

// ColumnID computes the xxHash64 of a column name.
func ColumnID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Digest accumulates a checksum over several payload pieces.
type Digest struct {
	d *xxhash.Digest
}

// NewDigest creates an empty Digest.
func NewDigest() Digest {
	return Digest{d: xxhash.New()}
}

// Write adds p to the digest.
func (d Digest) Write(p []byte) {
	_, _ = d.d.Write(p)
}

// Sum64 returns the checksum of everything written so far.
func (d Digest) Sum64() uint64 {
	return d.d.Sum64()
}
