package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ComputeValuesHash produces a deterministic hash over a column of float64
// values. NaN has a canonical bit pattern here so two datasets with missing
// entries in the same cells fingerprint identically.
func ComputeValuesHash(values []float64) Hash {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		bits := math.Float64bits(v)
		if math.IsNaN(v) {
			bits = math.Float64bits(math.NaN())
		}
		binary.LittleEndian.PutUint64(buf[i*8:], bits)
	}
	return NewHash(buf)
}

// ComputeKeyedHash hashes a set of named component hashes in key order,
// producing a stable fingerprint regardless of map iteration order.
func ComputeKeyedHash(parts map[string]Hash) Hash {
	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(parts[key].String())
		data.WriteString("|")
	}
	return NewHash([]byte(data.String()))
}
