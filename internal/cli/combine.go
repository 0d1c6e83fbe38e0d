package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/rss/pkg/crypto/mnemonic"
	"github.com/Davincible/rss/pkg/crypto/secretsharing"
	"github.com/Davincible/rss/pkg/secure"
	"github.com/Davincible/rss/pkg/share"
)

type CombineResult struct {
	SetID       string `json:"set_id"`
	SecretHex   string `json:"secret_hex"`
	Mnemonic    string `json:"mnemonic,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Accepted    []int  `json:"accepted"`
	Rejected    []int  `json:"rejected"`
}

func NewCombineCommand() *cobra.Command {
	var (
		asMnemonic   bool
		passwordFile string
		setID        string
	)

	cmd := &cobra.Command{
		Use:   "combine [share-file...]",
		Short: "Reconstruct a secret from share files",
		Long: `Reconstruct a secret from one or more share files of the same set.
Shares whose information-checking tags are not accepted by at least
threshold shares are discarded before reconstruction.`,
		Example: `  # Combine per-share files
  rss combine shares/share-001.json shares/share-003.json shares/share-004.json

  # Combine a set from the local share store
  rss combine --set 3f2a

  # Print the secret as a BIP39 mnemonic
  rss combine --mnemonic shares.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			paths, err := s.resolveShareFiles(args, setID)
			if err != nil {
				return err
			}

			file, err := s.loadShareFiles(paths, passwordFile)
			if err != nil {
				return err
			}

			sharer, err := s.newSharer(secretsharing.Config{
				Parts:        file.Parts,
				Threshold:    file.Threshold,
				MACAlgorithm: file.MAC,
			})
			if err != nil {
				return err
			}

			res, err := sharer.Recover(file.Shares)
			if err != nil {
				if closeErr := s.close(); closeErr != nil {
					s.logger.Warn("failed to flush metrics", "error", closeErr)
				}
				return fmt.Errorf("failed to combine shares: %w", err)
			}
			defer secure.Zero(res.Secret)

			result := CombineResult{
				SetID:       file.SetID,
				SecretHex:   hex.EncodeToString(res.Secret),
				Fingerprint: mnemonic.Fingerprint(res.Secret),
				Accepted:    idList(share.IDs(res.Valid)),
				Rejected:    idList(share.IDs(res.Rejected)),
			}

			if asMnemonic {
				if !mnemonic.CanEncode(len(res.Secret)) {
					return fmt.Errorf("secret of %d bytes cannot be shown as a mnemonic", len(res.Secret))
				}
				m, err := mnemonic.FromEntropy(res.Secret)
				if err != nil {
					return fmt.Errorf("secret cannot be shown as a mnemonic: %w", err)
				}
				result.Mnemonic = m.Words()
			}

			if s.jsonOutput {
				if err := s.writeJSON(result); err != nil {
					return err
				}
			} else {
				s.printCombineResult(result, len(file.Shares))
			}

			return s.close()
		},
	}

	cmd.Flags().BoolVar(&asMnemonic, "mnemonic", false, "Print the secret as a BIP39 mnemonic")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "Read the share file password from this file")
	cmd.Flags().StringVar(&setID, "set", "", "Use the shares of this stored set (id or id prefix)")

	return cmd
}

func (s *session) printCombineResult(result CombineResult, total int) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(s.out)
	green.Fprintf(s.out, "✓ Secret recovered (%d of %d shares accepted)\n", len(result.Accepted), total)

	if len(result.Rejected) > 0 {
		yellow.Fprintf(s.out, "⚠ Discarded shares failing information checking: %s\n", formatInts(result.Rejected))
	}
	fmt.Fprintln(s.out)

	if result.Mnemonic != "" {
		cyan.Fprint(s.out, "Mnemonic:    ")
		fmt.Fprintln(s.out, result.Mnemonic)
	} else {
		cyan.Fprint(s.out, "Secret:      ")
		fmt.Fprintln(s.out, result.SecretHex)
	}
	cyan.Fprint(s.out, "Fingerprint: ")
	fmt.Fprintln(s.out, result.Fingerprint)
}

func formatInts(ids []int) string {
	b := make([]byte, len(ids))
	for i, id := range ids {
		b[i] = byte(id)
	}
	return formatIDs(b)
}
