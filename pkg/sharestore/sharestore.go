// Package sharestore keeps share sets in a local directory, one
// subdirectory per set with an index and one share file per share.
package sharestore

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Davincible/rss/pkg/storage"
)

const indexFile = "set.json"

// ErrNotFound is returned for unknown or ambiguous set ids.
var ErrNotFound = errors.New("share set not found")

// ShareSet is the unencrypted index of a stored set.
type ShareSet struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Created        time.Time   `json:"created"`
	Modified       time.Time   `json:"modified"`
	Parts          int         `json:"parts"`
	Threshold      int         `json:"threshold"`
	MAC            string      `json:"mac"`
	IsEncrypted    bool        `json:"is_encrypted"`
	Shares         []ShareInfo `json:"shares"`
	ChecksumSHA256 []byte      `json:"checksum_sha256"`
}

// ShareInfo describes one stored share.
type ShareInfo struct {
	ID           byte        `json:"id"`
	File         string      `json:"file"`
	Status       ShareStatus `json:"status"`
	LastVerified *time.Time  `json:"last_verified,omitempty"`
}

// ShareStatus represents the status of a share
type ShareStatus string

const (
	ShareStatusUnverified ShareStatus = "unverified"
	ShareStatusValid      ShareStatus = "valid"
	ShareStatusRejected   ShareStatus = "rejected"
	ShareStatusMissing    ShareStatus = "missing"
)

// ShareStore manages collections of share sets
type ShareStore struct {
	storePath string
	shareSets map[string]*ShareSet
}

// NewShareStore opens the store at storePath, creating it if needed.
// Sets with an unreadable or tampered index are skipped.
func NewShareStore(storePath string) (*ShareStore, error) {
	store := &ShareStore{
		storePath: storePath,
		shareSets: make(map[string]*ShareSet),
	}

	if err := os.MkdirAll(storePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := store.loadShareSets(); err != nil {
		return nil, fmt.Errorf("failed to load share sets: %w", err)
	}

	return store, nil
}

// AddShareSet writes every share of f to its own file, encrypted when a
// password is given, and records the set in the index.
func (ss *ShareStore) AddShareSet(f *storage.ShareFile, name string, password []byte) (*ShareSet, error) {
	if _, exists := ss.shareSets[f.SetID]; exists {
		return nil, fmt.Errorf("share set '%s' already exists", f.SetID)
	}

	dir := filepath.Join(ss.storePath, f.SetID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create set directory: %w", err)
	}

	now := time.Now().UTC()
	shareSet := &ShareSet{
		ID:          f.SetID,
		Name:        name,
		Created:     f.Created,
		Modified:    now,
		Parts:       f.Parts,
		Threshold:   f.Threshold,
		MAC:         f.MAC,
		IsEncrypted: len(password) > 0,
	}

	for _, single := range f.PerShare() {
		id := single.Shares[0].ID
		file := fmt.Sprintf("share-%03d.json", id)
		if err := storage.Write(filepath.Join(dir, file), single, password); err != nil {
			return nil, err
		}
		shareSet.Shares = append(shareSet.Shares, ShareInfo{
			ID:     id,
			File:   file,
			Status: ShareStatusUnverified,
		})
	}

	if err := ss.saveShareSet(shareSet); err != nil {
		return nil, err
	}

	ss.shareSets[shareSet.ID] = shareSet
	return shareSet, nil
}

// GetShareSet looks a set up by id or by a unique id prefix.
func (ss *ShareStore) GetShareSet(id string) (*ShareSet, error) {
	if shareSet, ok := ss.shareSets[id]; ok {
		return shareSet, nil
	}

	var match *ShareSet
	for setID, shareSet := range ss.shareSets {
		if strings.HasPrefix(setID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: prefix '%s' is ambiguous", ErrNotFound, id)
			}
			match = shareSet
		}
	}
	if match == nil || id == "" {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	return match, nil
}

// ListShareSets returns all sets, oldest first.
func (ss *ShareStore) ListShareSets() []*ShareSet {
	sets := make([]*ShareSet, 0, len(ss.shareSets))
	for _, shareSet := range ss.shareSets {
		sets = append(sets, shareSet)
	}

	sort.Slice(sets, func(i, j int) bool {
		if sets[i].Created.Equal(sets[j].Created) {
			return sets[i].ID < sets[j].ID
		}
		return sets[i].Created.Before(sets[j].Created)
	})
	return sets
}

// SharePaths returns the files of the shares still present on disk and
// marks the others missing.
func (ss *ShareStore) SharePaths(id string) ([]string, error) {
	shareSet, err := ss.GetShareSet(id)
	if err != nil {
		return nil, err
	}

	var paths []string
	changed := false
	for i := range shareSet.Shares {
		info := &shareSet.Shares[i]
		path := filepath.Join(ss.storePath, shareSet.ID, info.File)
		if _, err := os.Stat(path); err != nil {
			if info.Status != ShareStatusMissing {
				info.Status = ShareStatusMissing
				changed = true
			}
			continue
		}
		paths = append(paths, path)
	}

	if changed {
		shareSet.Modified = time.Now().UTC()
		if err := ss.saveShareSet(shareSet); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// RecordVerification stores the outcome of information checking for the
// shares in valid and rejected.
func (ss *ShareStore) RecordVerification(id string, valid, rejected []byte) error {
	shareSet, err := ss.GetShareSet(id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	status := make(map[byte]ShareStatus, len(valid)+len(rejected))
	for _, shareID := range valid {
		status[shareID] = ShareStatusValid
	}
	for _, shareID := range rejected {
		status[shareID] = ShareStatusRejected
	}

	for i := range shareSet.Shares {
		info := &shareSet.Shares[i]
		if st, ok := status[info.ID]; ok {
			info.Status = st
			info.LastVerified = &now
		}
	}

	shareSet.Modified = now
	return ss.saveShareSet(shareSet)
}

// DeleteShareSet removes a set and all of its files.
func (ss *ShareStore) DeleteShareSet(id string) error {
	shareSet, err := ss.GetShareSet(id)
	if err != nil {
		return err
	}

	delete(ss.shareSets, shareSet.ID)

	if err := os.RemoveAll(filepath.Join(ss.storePath, shareSet.ID)); err != nil {
		return fmt.Errorf("failed to delete share set: %w", err)
	}
	return nil
}

func (ss *ShareStore) loadShareSets() error {
	entries, err := os.ReadDir(ss.storePath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Directories without a valid index are not ours.
		if err := ss.loadShareSet(filepath.Join(ss.storePath, entry.Name(), indexFile)); err != nil {
			continue
		}
	}

	return nil
}

func (ss *ShareStore) loadShareSet(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var shareSet ShareSet
	if err := json.Unmarshal(data, &shareSet); err != nil {
		return err
	}

	if err := verifyChecksum(&shareSet); err != nil {
		return err
	}

	ss.shareSets[shareSet.ID] = &shareSet
	return nil
}

func (ss *ShareStore) saveShareSet(shareSet *ShareSet) error {
	if err := calculateChecksum(shareSet); err != nil {
		return err
	}

	data, err := json.MarshalIndent(shareSet, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(ss.storePath, shareSet.ID, indexFile), data, 0600)
}

func checksum(shareSet *ShareSet) ([]byte, error) {
	temp := *shareSet
	temp.ChecksumSHA256 = nil

	data, err := json.Marshal(temp)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

func calculateChecksum(shareSet *ShareSet) error {
	sum, err := checksum(shareSet)
	if err != nil {
		return err
	}
	shareSet.ChecksumSHA256 = sum
	return nil
}

func verifyChecksum(shareSet *ShareSet) error {
	sum, err := checksum(shareSet)
	if err != nil {
		return err
	}
	if !bytes.Equal(sum, shareSet.ChecksumSHA256) {
		return fmt.Errorf("checksum mismatch for share set '%s'", shareSet.ID)
	}
	return nil
}
