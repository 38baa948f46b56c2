// Package idgen supplies the deterministic byte source used to mint session ids.
package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Source returns pseudo-random bytes for a domain tag and a nonce. The same
// inputs always give the same output, so a retried transaction mints the
// same id.
type Source interface {
	Bytes(tag string, nonce uint64) []byte
}

// Seeded hashes seed, tag and nonce with SHA-256.
type Seeded struct {
	seed []byte
}

func NewSeeded(seed []byte) *Seeded {
	s := make([]byte, len(seed))
	copy(s, seed)
	return &Seeded{seed: s}
}

// NewRandom seeds from crypto/rand.
func NewRandom() (*Seeded, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("idgen seed: %w", err)
	}
	return &Seeded{seed: seed}, nil
}

func (s *Seeded) Bytes(tag string, nonce uint64) []byte {
	h := sha256.New()
	h.Write(s.seed)
	h.Write([]byte(tag))
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	h.Write(n[:])
	return h.Sum(nil)
}

var sessionNamespace = uuid.MustParse("6f1c4c8e-3f2a-5d7b-9a51-0c4f0e1d2b37")

// SessionID derives a name-based UUID from source bytes. Its first byte is
// a hash output, so it is usable for fair slot selection.
func SessionID(raw []byte) uuid.UUID {
	return uuid.NewSHA1(sessionNamespace, raw)
}
