package validation

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/Davincible/rss/pkg/crypto/mac"
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

func ValidateHex(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

// DecodeHexSecret validates and decodes a hex encoded secret.
func DecodeHexSecret(input string) ([]byte, error) {
	if err := ValidateHex(input); err != nil {
		return nil, fmt.Errorf("invalid secret: %w", err)
	}
	return hex.DecodeString(strings.TrimSpace(input))
}

func ValidateSplitParams(parts, threshold int) error {
	if parts < 2 || parts > 255 {
		return fmt.Errorf("parts must be between 2 and 255 (got %d)", parts)
	}

	if threshold < 2 || threshold > parts {
		return fmt.Errorf("threshold must be between 2 and %d (got %d)", parts, threshold)
	}

	return nil
}

func ValidateMACAlgorithm(name string) error {
	if _, err := mac.New(name); err != nil {
		return err
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) > 256 {
		return fmt.Errorf("password too long (max 256 characters)")
	}

	for i, ch := range password {
		if ch == 0 {
			return fmt.Errorf("password contains null character at position %d", i)
		}
	}

	return nil
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}
