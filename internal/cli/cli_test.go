package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/rss/pkg/config"
	"github.com/Davincible/rss/pkg/crypto/secretsharing"
	"github.com/Davincible/rss/pkg/sharestore"
	"github.com/Davincible/rss/pkg/storage"
)

const testSecretHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCLIConfig(t, filepath.Join(t.TempDir(), "config.json"), stdin, args...)
}

func runCLIConfig(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand("test")
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", configPath}, args...))

	err := root.Execute()
	return out.String(), err
}

func splitToDir(t *testing.T, dir string, extra ...string) []string {
	t.Helper()

	args := append([]string{"split", "-n", "5", "-t", "3", "--stdin", "--hex", "--dir", dir}, extra...)
	_, err := runCLI(t, testSecretHex+"\n", args...)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "share-*.json"))
	require.NoError(t, err)
	require.Len(t, files, 5)
	return files
}

func combineJSON(t *testing.T, args ...string) CombineResult {
	t.Helper()

	out, err := runCLI(t, "", append([]string{"--json", "combine"}, args...)...)
	require.NoError(t, err)

	var result CombineResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	return result
}

// tamper flips a byte of the share stored at path and returns its id.
func tamper(t *testing.T, path string) int {
	t.Helper()

	f, err := storage.Read(path, nil)
	require.NoError(t, err)
	f.Shares[0].YValues[0] ^= 0xFF
	require.NoError(t, storage.Write(path, f, nil))
	return int(f.Shares[0].ID)
}

func shareIDs(t *testing.T, paths ...string) []int {
	t.Helper()

	var ids []int
	for _, path := range paths {
		f, err := storage.Read(path, nil)
		require.NoError(t, err)
		ids = append(ids, int(f.Shares[0].ID))
	}
	return ids
}

func TestSplitToStdout(t *testing.T) {
	out, err := runCLI(t, testSecretHex, "split", "-n", "4", "-t", "2", "--mac", "aes-cmac", "--stdin", "--hex")
	require.NoError(t, err)

	f, err := storage.Decode([]byte(out), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Parts)
	assert.Equal(t, 2, f.Threshold)
	assert.Equal(t, "aes-cmac", f.MAC)
	require.Len(t, f.Shares, 4)
	for _, sh := range f.Shares {
		assert.Len(t, sh.YValues, 32)
		assert.Len(t, sh.Macs, 4)
		assert.Len(t, sh.MacKeys, 4)
	}
}

func TestSplitPromptedSecret(t *testing.T) {
	out, err := runCLI(t, "correct horse battery staple\n", "split", "-n", "3", "-t", "2")
	require.NoError(t, err)

	f, err := storage.Decode([]byte(out), nil)
	require.NoError(t, err)
	assert.Len(t, f.Shares, 3)
}

func TestSplitCombineSubset(t *testing.T) {
	files := splitToDir(t, t.TempDir())

	result := combineJSON(t, files[1], files[3], files[4])
	assert.Equal(t, testSecretHex, result.SecretHex)
	assert.Len(t, result.Accepted, 3)
	assert.Empty(t, result.Rejected)
}

func TestCombineDiscardsTamperedShare(t *testing.T) {
	files := splitToDir(t, t.TempDir())
	tampered := tamper(t, files[0])

	result := combineJSON(t, files...)
	assert.Equal(t, testSecretHex, result.SecretHex)
	assert.Equal(t, []int{tampered}, result.Rejected)
	assert.Equal(t, shareIDs(t, files[1:]...), result.Accepted)
}

func TestCombineNotEnoughValid(t *testing.T) {
	files := splitToDir(t, t.TempDir())
	tamper(t, files[0])

	_, err := runCLI(t, "", "combine", files[0], files[1], files[2])
	assert.ErrorIs(t, err, secretsharing.ErrNotEnoughValid)
}

func TestCombineTextOutput(t *testing.T) {
	files := splitToDir(t, t.TempDir())
	tampered := tamper(t, files[2])

	out, err := runCLI(t, "", append([]string{"combine"}, files...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Secret recovered (4 of 5 shares accepted)")
	assert.Contains(t, out, fmt.Sprintf("Discarded shares failing information checking: %d\n", tampered))
	assert.Contains(t, out, testSecretHex)
}

func TestCheck(t *testing.T) {
	files := splitToDir(t, t.TempDir())
	tamper(t, files[4])

	out, err := runCLI(t, "", append([]string{"--json", "check"}, files...)...)
	require.NoError(t, err)

	var result CheckResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Recoverable)
	assert.Equal(t, 3, result.Threshold)
	require.Len(t, result.Shares, 5)
	assert.Equal(t, shareIDs(t, files[:4]...), []int{result.Shares[0].ID, result.Shares[1].ID, result.Shares[2].ID, result.Shares[3].ID})
	for _, st := range result.Shares[:4] {
		assert.True(t, st.Valid)
		assert.Equal(t, 5, st.Accepts)
	}
	assert.False(t, result.Shares[4].Valid)
	assert.Equal(t, 0, result.Shares[4].Accepts)
}

func TestCheckFailsWhenUnrecoverable(t *testing.T) {
	files := splitToDir(t, t.TempDir())

	out, err := runCLI(t, "", "check", files[0], files[1])
	assert.ErrorIs(t, err, secretsharing.ErrNotEnoughValid)
	assert.Contains(t, out, "rejected")
}

func TestEncryptedShareFiles(t *testing.T) {
	dir := t.TempDir()
	passwordFile := filepath.Join(dir, "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("correct horse\n"), 0600))

	files := splitToDir(t, filepath.Join(dir, "shares"), "--encrypt", "--password-file", passwordFile)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "y_values")

	_, err = runCLI(t, "", "combine", files[0], files[1], files[2])
	assert.Error(t, err)

	result := combineJSON(t, "--password-file", passwordFile, files[0], files[1], files[2])
	assert.Equal(t, testSecretHex, result.SecretHex)
}

func TestEncryptRejectsShortPassword(t *testing.T) {
	dir := t.TempDir()
	passwordFile := filepath.Join(dir, "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("short"), 0600))

	_, err := runCLI(t, testSecretHex, "split", "--stdin", "--hex", "--dir", dir, "--encrypt", "--password-file", passwordFile)
	assert.ErrorContains(t, err, "at least 8")
}

func TestEncryptRequiresFileOutput(t *testing.T) {
	_, err := runCLI(t, testSecretHex, "split", "--stdin", "--hex", "--encrypt")
	assert.Error(t, err)
}

func TestMnemonicRoundTrip(t *testing.T) {
	phrase := "legal winner thank year wave sausage worth useful legal winner thank yellow"
	path := filepath.Join(t.TempDir(), "shares.json")

	_, err := runCLI(t, phrase+"\n", "split", "--mnemonic", "-n", "3", "-t", "2", "-o", path)
	require.NoError(t, err)

	result := combineJSON(t, "--mnemonic", path)
	assert.Equal(t, phrase, result.Mnemonic)
	assert.Equal(t, "7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f", result.SecretHex)
}

func TestCombineMnemonicRejectsOddLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shares.json")
	_, err := runCLI(t, "abc", "split", "--stdin", "-o", path)
	require.NoError(t, err)

	_, err = runCLI(t, "", "combine", "--mnemonic", path)
	assert.ErrorContains(t, err, "secret of 3 bytes cannot be shown as a mnemonic")
}

func TestMnemonicInputIsSanitized(t *testing.T) {
	phrase := "legal winner thank year wave sausage worth useful legal winner thank yellow"
	path := filepath.Join(t.TempDir(), "shares.json")

	_, err := runCLI(t, "  "+strings.ToUpper(phrase)+"\t \r\n", "split", "--mnemonic", "-n", "3", "-t", "2", "-o", path)
	require.NoError(t, err)

	result := combineJSON(t, "--mnemonic", path)
	assert.Equal(t, phrase, result.Mnemonic)
}

func TestSplitSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shares.json")

	out, err := runCLI(t, testSecretHex, "--json", "split", "--stdin", "--hex", "-o", path)
	require.NoError(t, err)

	var result SplitResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{path}, result.Files)
	assert.Equal(t, 3, result.Parts)
	assert.Equal(t, 2, result.Threshold)
	assert.Equal(t, "hmac-sha256", result.MAC)
	assert.False(t, result.Encrypted)

	f, err := storage.Read(path, nil)
	require.NoError(t, err)
	assert.Equal(t, result.SetID, f.SetID)
}

func TestSplitInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "threshold above parts", args: []string{"-n", "2", "-t", "3"}},
		{name: "threshold one", args: []string{"-n", "3", "-t", "1"}},
		{name: "unknown mac", args: []string{"--mac", "md5"}},
		{name: "bad hex", args: []string{"--hex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"split", "--stdin"}, tt.args...)
			_, err := runCLI(t, "zz", args...)
			assert.Error(t, err)
		})
	}
}

func TestMetricsFile(t *testing.T) {
	files := splitToDir(t, t.TempDir())
	metricsFile := filepath.Join(t.TempDir(), "rss.prom")

	_, err := runCLI(t, "", append([]string{"--metrics-file", metricsFile, "combine"}, files...)...)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rss_shares_checked_total{result="accepted"} 5`)
}

// storeConfig writes a config whose share store lives in a temp dir.
func storeConfig(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.DefaultPath = filepath.Join(dir, "store")

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path, cfg.Storage.DefaultPath
}

func TestShareStoreWorkflow(t *testing.T) {
	configPath, storeDir := storeConfig(t)

	out, err := runCLIConfig(t, configPath, testSecretHex, "--json", "split", "-n", "4", "-t", "2", "--stdin", "--hex", "--store", "--name", "backup")
	require.NoError(t, err)

	var split SplitResult
	require.NoError(t, json.Unmarshal([]byte(out), &split))
	require.Len(t, split.Files, 4)

	out, err = runCLIConfig(t, configPath, "", "--json", "list")
	require.NoError(t, err)
	var sets []sharestore.ShareSet
	require.NoError(t, json.Unmarshal([]byte(out), &sets))
	require.Len(t, sets, 1)
	assert.Equal(t, split.SetID, sets[0].ID)
	assert.Equal(t, "backup", sets[0].Name)

	tampered := tamper(t, split.Files[1])

	_, err = runCLIConfig(t, configPath, "", "check", "--set", split.SetID[:8])
	require.NoError(t, err)

	store, err := sharestore.NewShareStore(storeDir)
	require.NoError(t, err)
	set, err := store.GetShareSet(split.SetID)
	require.NoError(t, err)
	for _, info := range set.Shares {
		if int(info.ID) == tampered {
			assert.Equal(t, sharestore.ShareStatusRejected, info.Status)
		} else {
			assert.Equal(t, sharestore.ShareStatusValid, info.Status)
		}
	}

	out, err = runCLIConfig(t, configPath, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "3 valid, 1 rejected")

	out, err = runCLIConfig(t, configPath, "", "--json", "combine", "--set", split.SetID)
	require.NoError(t, err)
	var combined CombineResult
	require.NoError(t, json.Unmarshal([]byte(out), &combined))
	assert.Equal(t, testSecretHex, combined.SecretHex)
	assert.Equal(t, []int{tampered}, combined.Rejected)

	_, err = runCLIConfig(t, configPath, "", "delete", split.SetID)
	require.NoError(t, err)

	out, err = runCLIConfig(t, configPath, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No share sets stored.")
}

func TestSetAndFilesAreExclusive(t *testing.T) {
	configPath, _ := storeConfig(t)

	_, err := runCLIConfig(t, configPath, "", "combine", "--set", "abc", "shares.json")
	assert.Error(t, err)

	_, err = runCLIConfig(t, configPath, "", "combine")
	assert.ErrorContains(t, err, "no share files")

	_, err = runCLIConfig(t, configPath, "", "check", "--set", "unknown")
	assert.ErrorIs(t, err, sharestore.ErrNotFound)
}
