package shamir

import (
	"fmt"

	"github.com/hashicorp/vault/shamir"

	"github.com/Davincible/rss/pkg/crypto/gf256"
	"github.com/Davincible/rss/pkg/crypto/matrix"
	"github.com/Davincible/rss/pkg/crypto/random"
	"github.com/Davincible/rss/pkg/secure"
	"github.com/Davincible/rss/pkg/share"
)

type Config struct {
	Parts     int
	Threshold int
}

func (c *Config) Validate() error {
	if c.Parts < 2 {
		return fmt.Errorf("parts must be at least 2, got %d", c.Parts)
	}
	if c.Threshold < 2 {
		return fmt.Errorf("threshold must be at least 2, got %d", c.Threshold)
	}
	if c.Threshold > c.Parts {
		return fmt.Errorf("threshold (%d) cannot be greater than parts (%d)", c.Threshold, c.Parts)
	}
	if c.Parts > 255 {
		return fmt.Errorf("parts cannot exceed 255, got %d", c.Parts)
	}
	return nil
}

// Split shares secret with Vault's Shamir implementation. Vault picks random
// distinct x coordinates and appends them to each share; the coordinate
// becomes the share id.
func Split(secret []byte, config Config) ([]*share.Share, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	parts, err := shamir.Split(secret, config.Parts, config.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}

	result := make([]*share.Share, len(parts))
	for i, part := range parts {
		s, err := FromVault(part)
		if err != nil {
			return nil, err
		}
		result[i] = s
	}

	return result, nil
}

// SplitWithIDs evaluates a random polynomial of degree threshold-1 with the
// secret as constant term at each of the given ids.
func SplitWithIDs(secret []byte, ids []byte, threshold int, rng random.Source) ([]*share.Share, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}
	if threshold < 1 || threshold > len(ids) {
		return nil, fmt.Errorf("threshold must be between 1 and %d, got %d", len(ids), threshold)
	}

	shares := make([]*share.Share, len(ids))
	for i, id := range ids {
		s, err := share.New(id, make([]byte, len(secret)))
		if err != nil {
			return nil, err
		}
		shares[i] = s
	}
	if err := share.CheckUniqueIDs(shares); err != nil {
		return nil, err
	}

	coeffs := make([]byte, threshold)
	defer secure.Zero(coeffs)

	for pos, b := range secret {
		coeffs[0] = b
		if err := rng.FillBytes(coeffs[1:]); err != nil {
			return nil, fmt.Errorf("failed to draw coefficients: %w", err)
		}
		for _, s := range shares {
			s.YValues[pos] = gf256.Eval(coeffs, s.ID)
		}
	}

	return shares, nil
}

// Combine reconstructs the secret from the first threshold shares by
// inverting their Vandermonde matrix and solving for the polynomial
// coefficients at every byte position.
func Combine(shares []*share.Share, threshold int) ([]byte, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("threshold must be at least 1, got %d", threshold)
	}
	if len(shares) < threshold {
		return nil, fmt.Errorf("at least %d shares are required for reconstruction, got %d", threshold, len(shares))
	}

	selected := shares[:threshold]
	if err := share.CheckUniqueIDs(selected); err != nil {
		return nil, err
	}

	size := len(selected[0].YValues)
	if size == 0 {
		return nil, fmt.Errorf("share %d has empty data", selected[0].ID)
	}
	for _, s := range selected[1:] {
		if len(s.YValues) != size {
			return nil, fmt.Errorf("share %d has %d bytes, expected %d", s.ID, len(s.YValues), size)
		}
	}

	inv, order, err := matrix.Vandermonde(share.IDs(selected), threshold).InverseElimDepRowsOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to invert share matrix: %w", err)
	}
	if order != threshold {
		return nil, fmt.Errorf("%w: share ids are linearly dependent", matrix.ErrSingular)
	}

	secret := make([]byte, size)
	y := make([]byte, threshold)
	defer secure.Zero(y)

	for pos := range secret {
		for i, s := range selected {
			y[i] = s.YValues[pos]
		}
		coeffs, err := inv.RightMultiply(y)
		if err != nil {
			secure.Zero(secret)
			return nil, fmt.Errorf("failed to solve byte %d: %w", pos, err)
		}
		secret[pos] = coeffs[0]
		secure.Zero(coeffs)
	}

	return secret, nil
}

// FromVault converts a Vault share (payload followed by its x coordinate).
func FromVault(part []byte) (*share.Share, error) {
	if len(part) < 2 {
		return nil, fmt.Errorf("vault share is too short")
	}
	return share.New(part[len(part)-1], append([]byte(nil), part[:len(part)-1]...))
}

// ToVault is the inverse of FromVault.
func ToVault(s *share.Share) []byte {
	out := make([]byte, 0, len(s.YValues)+1)
	out = append(out, s.YValues...)
	return append(out, s.ID)
}
