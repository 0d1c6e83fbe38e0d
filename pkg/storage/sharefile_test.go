package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/rss/pkg/share"
)

func sampleFile(t *testing.T) *ShareFile {
	t.Helper()
	a, err := share.New(1, []byte{0xAA, 0xBB})
	require.NoError(t, err)
	a.Macs[2] = []byte{1, 2, 3}
	a.MacKeys[2] = []byte{4, 5, 6}
	a.ICType = share.ICRabinBenOr

	b, err := share.New(2, []byte{0xCC, 0xDD})
	require.NoError(t, err)
	b.Macs[1] = []byte{7}
	b.MacKeys[1] = []byte{8}
	b.ICType = share.ICRabinBenOr

	return NewShareFile(2, 2, "hmac-sha256", []*share.Share{a, b})
}

func assertSameShares(t *testing.T, want, got []*share.Share) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "share %d differs", i)
	}
}

func TestNewShareFile(t *testing.T) {
	f := sampleFile(t)
	assert.Equal(t, FormatVersion, f.Version)
	_, err := uuid.Parse(f.SetID)
	assert.NoError(t, err)
	assert.NoError(t, f.Validate())
}

func TestWriteReadPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shares.json")
	f := sampleFile(t)

	require.NoError(t, Write(path, f, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := Read(path, nil)
	require.NoError(t, err)
	assert.Equal(t, f.SetID, got.SetID)
	assert.Equal(t, f.Threshold, got.Threshold)
	assert.Equal(t, f.MAC, got.MAC)
	assertSameShares(t, f.Shares, got.Shares)
}

func TestWriteReadEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shares.enc.json")
	f := sampleFile(t)
	password := []byte("correct horse")

	require.NoError(t, Write(path, f, password))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "aabb")
	assert.NotContains(t, string(raw), f.SetID)

	_, err = Read(path, nil)
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = Read(path, []byte("wrong"))
	assert.ErrorContains(t, err, "failed to decrypt")

	got, err := Read(path, password)
	require.NoError(t, err)
	assertSameShares(t, f.Shares, got.Shares)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"), nil)
	assert.Error(t, err)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "shares"},
		{name: "bad version", data: `{"version":9,"set_id":"` + uuid.NewString() + `","parts":2,"threshold":2,"mac":"hmac-sha256"}`},
		{name: "bad set id", data: `{"version":1,"set_id":"x","parts":2,"threshold":2,"mac":"hmac-sha256"}`},
		{name: "bad threshold", data: `{"version":1,"set_id":"` + uuid.NewString() + `","parts":2,"threshold":3,"mac":"hmac-sha256"}`},
		{name: "missing mac", data: `{"version":1,"set_id":"` + uuid.NewString() + `","parts":2,"threshold":2}`},
		{name: "bad share", data: `{"version":1,"set_id":"` + uuid.NewString() + `","parts":2,"threshold":2,"mac":"hmac-sha256","shares":[{"id":0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), nil)
			assert.Error(t, err)
		})
	}
}

func TestPerShareAndMerge(t *testing.T) {
	f := sampleFile(t)

	parts := f.PerShare()
	require.Len(t, parts, 2)
	for i, p := range parts {
		assert.Equal(t, f.SetID, p.SetID)
		require.Len(t, p.Shares, 1)
		assert.Equal(t, f.Shares[i].ID, p.Shares[0].ID)
	}
	assert.Len(t, f.Shares, 2)

	merged, err := Merge([]*ShareFile{parts[1], parts[0]})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1}, share.IDs(merged.Shares))
	assert.Len(t, parts[1].Shares, 1)
}

func TestMergeRejectsMismatch(t *testing.T) {
	_, err := Merge(nil)
	assert.Error(t, err)

	a := sampleFile(t)
	b := sampleFile(t)
	_, err = Merge([]*ShareFile{a, b})
	assert.ErrorContains(t, err, "different sets")

	c := *a
	c.MAC = "blake2b-256"
	_, err = Merge([]*ShareFile{a, &c})
	assert.ErrorContains(t, err, "disagree")
}
