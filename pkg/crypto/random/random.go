// Package random provides the byte sources used to draw MAC keys and
// polynomial coefficients.
package random

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// Source fills buffers with random bytes. Callers treat any error as fatal.
type Source interface {
	FillBytes(b []byte) error
}

// SystemSource reads from the operating system CSPRNG.
type SystemSource struct {
	mu     sync.Mutex
	reader io.Reader
}

// NewSystemSource returns a source backed by crypto/rand.
func NewSystemSource() *SystemSource {
	return &SystemSource{reader: rand.Reader}
}

func (s *SystemSource) FillBytes(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.ReadFull(s.reader, b); err != nil {
		return fmt.Errorf("failed to read random bytes: %w", err)
	}
	return nil
}

func (s *SystemSource) String() string { return "system" }

// ChaCha20Source is a deterministic keystream generator seeded by the
// caller. It exists for reproducible test vectors and must not be used for
// real shares.
type ChaCha20Source struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

// NewChaCha20Source derives a ChaCha20 key from SHA-256(seed) and streams
// its keystream under an all-zero nonce.
func NewChaCha20Source(seed []byte) (*ChaCha20Source, error) {
	key := sha256.Sum256(seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create chacha20 stream: %w", err)
	}
	return &ChaCha20Source{cipher: c}, nil
}

func (s *ChaCha20Source) FillBytes(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(b)
	s.cipher.XORKeyStream(b, b)
	return nil
}

func (s *ChaCha20Source) String() string { return "chacha20" }

// Bytes draws n fresh bytes from src.
func Bytes(src Source, n int) ([]byte, error) {
	b := make([]byte, n)
	if err := src.FillBytes(b); err != nil {
		return nil, err
	}
	return b, nil
}
