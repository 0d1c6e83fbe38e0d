// Package mac provides the keyed MAC primitives used for pairwise share
// authentication.
package mac

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Davincible/rss/pkg/secure"
)

// ErrInvalidKey is returned when a key does not fit the primitive.
var ErrInvalidKey = errors.New("mac: invalid key")

// Helper computes and verifies fixed-size tags under fixed-size keys.
type Helper interface {
	// KeySize is the key length in bytes.
	KeySize() int
	// TagSize is the tag length in bytes.
	TagSize() int
	// ComputeMAC is deterministic in (data, key). Its only error is ErrInvalidKey.
	ComputeMAC(data, key []byte) ([]byte, error)
	// VerifyMAC recomputes the tag and compares it in constant time.
	// Invalid keys and missing tags verify as false.
	VerifyMAC(data, tag, key []byte) bool
	String() string
}

// Algorithm names accepted by New.
const (
	AlgHMACSHA256 = "hmac-sha256"
	AlgAESCMAC    = "aes-cmac"
	AlgBLAKE2b256 = "blake2b-256"
)

var constructors = map[string]func() Helper{
	AlgHMACSHA256: NewHMACSHA256,
	AlgAESCMAC:    NewAESCMAC,
	AlgBLAKE2b256: NewBLAKE2b,
}

// New returns the helper registered under name.
func New(name string) (Helper, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported MAC algorithm %q (supported: %s)", name, strings.Join(Algorithms(), ", "))
	}
	return ctor(), nil
}

// Algorithms lists the supported algorithm names in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// computeFunc is the primitive-specific part of a helper.
type computeFunc func(data, key []byte) ([]byte, error)

// baseHelper enforces the key length and implements verification on top of
// a compute function.
type baseHelper struct {
	name    string
	keySize int
	tagSize int
	compute computeFunc
}

func (h *baseHelper) KeySize() int { return h.keySize }

func (h *baseHelper) TagSize() int { return h.tagSize }

func (h *baseHelper) String() string { return h.name }

func (h *baseHelper) ComputeMAC(data, key []byte) ([]byte, error) {
	if len(key) != h.keySize {
		return nil, fmt.Errorf("%w: %s needs a %d byte key, got %d", ErrInvalidKey, h.name, h.keySize, len(key))
	}
	return h.compute(data, key)
}

func (h *baseHelper) VerifyMAC(data, tag, key []byte) bool {
	if tag == nil {
		return false
	}
	expected, err := h.ComputeMAC(data, key)
	if err != nil {
		return false
	}
	return secure.ConstantTimeCompare(expected, tag)
}
