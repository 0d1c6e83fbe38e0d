// Package mnemonic converts secrets to and from BIP39 word lists so they can
// be entered and printed by hand.
package mnemonic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/Davincible/rss/pkg/secure"
)

const (
	MinEntropyBits = 128
	MaxEntropyBits = 256
)

type Mnemonic struct {
	words []string
}

// NewMnemonic generates a fresh random phrase.
func NewMnemonic(entropyBits int) (*Mnemonic, error) {
	if entropyBits < MinEntropyBits || entropyBits > MaxEntropyBits {
		return nil, fmt.Errorf("entropy bits must be between %d and %d", MinEntropyBits, MaxEntropyBits)
	}

	if entropyBits%32 != 0 {
		return nil, fmt.Errorf("entropy bits must be a multiple of 32")
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer secure.Zero(entropy)

	return FromEntropy(entropy)
}

func FromWords(words string) (*Mnemonic, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(words)), " ")
	if !bip39.IsMnemonicValid(normalized) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	return &Mnemonic{
		words: strings.Split(normalized, " "),
	}, nil
}

// FromEntropy encodes a secret as words. The secret must be 16 to 32 bytes
// long and a multiple of 4.
func FromEntropy(entropy []byte) (*Mnemonic, error) {
	if len(entropy) < 16 || len(entropy) > 32 {
		return nil, fmt.Errorf("entropy must be between 16 and 32 bytes")
	}

	if len(entropy)%4 != 0 {
		return nil, fmt.Errorf("entropy length must be a multiple of 4")
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic from entropy: %w", err)
	}

	return &Mnemonic{
		words: strings.Split(mnemonic, " "),
	}, nil
}

func (m *Mnemonic) Words() string {
	return strings.Join(m.words, " ")
}

func (m *Mnemonic) WordCount() int {
	return len(m.words)
}

func (m *Mnemonic) Entropy() ([]byte, error) {
	entropy, err := bip39.EntropyFromMnemonic(m.Words())
	if err != nil {
		return nil, fmt.Errorf("failed to get entropy from mnemonic: %w", err)
	}
	return entropy, nil
}

// Fingerprint returns the first four bytes of SHA-256 over the secret, hex
// encoded, for comparing secrets without revealing them.
func Fingerprint(secret []byte) string {
	h := sha256.Sum256(secret)
	return hex.EncodeToString(h[:4])
}

// CanEncode reports whether a secret of n bytes has a word representation.
func CanEncode(n int) bool {
	return n >= 16 && n <= 32 && n%4 == 0
}
