package mac

import (
	"fmt"

	"github.com/google/tink/go/mac/subtle"
	"golang.org/x/crypto/blake2b"
)

// NewHMACSHA256 returns HMAC-SHA-256 with 32 byte keys and full 32 byte tags.
func NewHMACSHA256() Helper {
	return &baseHelper{
		name:    "HMAC-SHA256",
		keySize: 32,
		tagSize: 32,
		compute: func(data, key []byte) ([]byte, error) {
			h, err := subtle.NewHMAC("SHA256", key, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
			}
			return h.ComputeMAC(data)
		},
	}
}

// NewAESCMAC returns AES-256-CMAC with 16 byte tags.
func NewAESCMAC() Helper {
	return &baseHelper{
		name:    "AES-CMAC",
		keySize: 32,
		tagSize: 16,
		compute: func(data, key []byte) ([]byte, error) {
			c, err := subtle.NewAESCMAC(key, 16)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
			}
			return c.ComputeMAC(data)
		},
	}
}

// NewBLAKE2b returns keyed BLAKE2b-256.
func NewBLAKE2b() Helper {
	return &baseHelper{
		name:    "BLAKE2b-256",
		keySize: 32,
		tagSize: blake2b.Size256,
		compute: func(data, key []byte) ([]byte, error) {
			h, err := blake2b.New256(key)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
			}
			h.Write(data)
			return h.Sum(nil), nil
		},
	}
}
