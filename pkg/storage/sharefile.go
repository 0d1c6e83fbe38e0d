// Package storage persists share sets as JSON files, optionally encrypted
// under a password.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Davincible/rss/pkg/secure"
	"github.com/Davincible/rss/pkg/share"
)

// FormatVersion is written into every share file.
const FormatVersion = 1

// ErrPasswordRequired is returned when reading an encrypted file without a password.
var ErrPasswordRequired = errors.New("share file is encrypted, password required")

// ShareFile holds some or all shares of one sharing together with the
// parameters needed to check and combine them.
type ShareFile struct {
	Version   int            `json:"version"`
	SetID     string         `json:"set_id"`
	Parts     int            `json:"parts"`
	Threshold int            `json:"threshold"`
	MAC       string         `json:"mac"`
	Created   time.Time      `json:"created"`
	Shares    []*share.Share `json:"shares"`
}

// NewShareFile wraps a freshly split share set under a new set id.
func NewShareFile(parts, threshold int, macAlgorithm string, shares []*share.Share) *ShareFile {
	return &ShareFile{
		Version:   FormatVersion,
		SetID:     uuid.NewString(),
		Parts:     parts,
		Threshold: threshold,
		MAC:       macAlgorithm,
		Created:   time.Now().UTC(),
		Shares:    shares,
	}
}

// Validate checks the header fields.
func (f *ShareFile) Validate() error {
	if f.Version != FormatVersion {
		return fmt.Errorf("unsupported share file version %d", f.Version)
	}
	if _, err := uuid.Parse(f.SetID); err != nil {
		return fmt.Errorf("invalid set id %q: %w", f.SetID, err)
	}
	if f.Threshold < 1 || f.Threshold > f.Parts {
		return fmt.Errorf("invalid threshold %d for %d parts", f.Threshold, f.Parts)
	}
	if f.MAC == "" {
		return fmt.Errorf("share file does not name a MAC algorithm")
	}
	return nil
}

// PerShare splits the file into one file per share for distribution.
func (f *ShareFile) PerShare() []*ShareFile {
	out := make([]*ShareFile, len(f.Shares))
	for i, s := range f.Shares {
		c := *f
		c.Shares = []*share.Share{s}
		out[i] = &c
	}
	return out
}

// Merge joins files of the same set into one. Shares keep the order in
// which the files were given.
func Merge(files []*ShareFile) (*ShareFile, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no share files provided")
	}

	merged := *files[0]
	merged.Shares = nil
	for _, f := range files {
		if f.SetID != merged.SetID {
			return nil, fmt.Errorf("share files belong to different sets (%s and %s)", merged.SetID, f.SetID)
		}
		if f.Threshold != merged.Threshold || f.Parts != merged.Parts || f.MAC != merged.MAC {
			return nil, fmt.Errorf("share files of set %s disagree on parameters", f.SetID)
		}
		merged.Shares = append(merged.Shares, f.Shares...)
	}
	return &merged, nil
}

// Write stores f at path with 0600 permissions. A non-empty password
// encrypts the document.
func Write(path string, f *ShareFile, password []byte) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal share file: %w", err)
	}

	if len(password) > 0 {
		env, err := seal(data, password)
		secure.Zero(data)
		if err != nil {
			return err
		}
		if data, err = json.MarshalIndent(env, "", "  "); err != nil {
			return fmt.Errorf("failed to marshal encrypted share file: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Read loads a share file written by Write.
func Read(path string, password []byte) (*ShareFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Decode(data, password)
}

// Decode parses share file contents, decrypting them when needed.
func Decode(data, password []byte) (*ShareFile, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse share file: %w", err)
	}

	if env.Encrypted {
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		plaintext, err := env.open(password)
		if err != nil {
			return nil, err
		}
		defer secure.Zero(plaintext)
		data = plaintext
	}

	var f ShareFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse share file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
