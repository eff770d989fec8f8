// Package seed turns a project's master seed plus a path of string labels
// into independent, reproducible pseudo-random streams.
//
// The derivation algorithm is frozen: the digest input starts with the
// AlgorithmVersion tag, followed by the master seed as 8 big-endian bytes,
// followed by each label as a big-endian uint32 byte length plus the label
// bytes. Length prefixing makes label boundaries unambiguous, so
// ["ab","c"] and ["a","bc"] derive different streams. The SHA-256 digest
// keys a ChaCha8 generator. Changing any part of this requires a new
// version tag and a migration for existing projects.
package seed

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// AlgorithmVersion is mixed into every digest. Bump only with a migration
// path for persisted projects; streams derived under different tags share
// nothing.
const AlgorithmVersion = "forge.seed.v1"

// Stream is a deterministic pseudo-random stream bound to one point in the
// derivation tree. It is not safe for concurrent use.
type Stream struct {
	rng    *rand.Rand
	master uint64
	path   []string
}

// Derive returns the stream for the given master seed and label path.
// The same arguments always produce a byte-identical output sequence.
func Derive(masterSeed uint64, path ...string) *Stream {
	return &Stream{
		rng:    rand.New(rand.NewChaCha8(deriveKey(masterSeed, path))),
		master: masterSeed,
		path:   append([]string(nil), path...),
	}
}

// deriveKey is the frozen v1 digest layout. Any byte of this input changing
// would silently re-seed every stream in existing projects, so its output is
// pinned by golden vectors in the tests.
func deriveKey(masterSeed uint64, path []string) [32]byte {
	h := sha256.New()
	h.Write([]byte(AlgorithmVersion))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], masterSeed)
	h.Write(buf[:])

	for _, label := range path {
		binary.BigEndian.PutUint32(buf[:4], uint32(len(label)))
		h.Write(buf[:4])
		h.Write([]byte(label))
	}

	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// NewMasterSeed mints a fresh master seed from crypto/rand. Used once at
// project creation; everything after derives from the stored value.
func NewMasterSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// Derive returns a child stream with the given labels appended to this
// stream's path. The child is derived from the path alone, so it is
// unaffected by how many values have been drawn from the parent.
func (s *Stream) Derive(labels ...string) *Stream {
	path := make([]string, 0, len(s.path)+len(labels))
	path = append(path, s.path...)
	path = append(path, labels...)
	return Derive(s.master, path...)
}

// Path returns the label path this stream was derived with.
func (s *Stream) Path() []string {
	return append([]string(nil), s.path...)
}

// Uint64 returns the next value in the stream.
func (s *Stream) Uint64() uint64 {
	return s.rng.Uint64()
}

// IntN returns a value in [0, n). Panics if n <= 0.
func (s *Stream) IntN(n int) int {
	return s.rng.IntN(n)
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return s.rng.Float64()
}

// Roll returns the sum of n dice with the given number of sides,
// e.g. Roll(3, 6) for 3d6.
func (s *Stream) Roll(n, sides int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += s.rng.IntN(sides) + 1
	}
	return total
}

// Shuffle pseudo-randomizes the order of n elements via swap.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// Pick returns one element of choices drawn from the stream.
// Panics if choices is empty.
func Pick[T any](s *Stream, choices []T) T {
	return choices[s.IntN(len(choices))]
}
