package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/rss/internal/validation"
	"github.com/Davincible/rss/pkg/config"
	"github.com/Davincible/rss/pkg/crypto/mnemonic"
	"github.com/Davincible/rss/pkg/secure"
	"github.com/Davincible/rss/pkg/storage"
)

type SplitResult struct {
	SetID     string   `json:"set_id"`
	Parts     int      `json:"parts"`
	Threshold int      `json:"threshold"`
	MAC       string   `json:"mac"`
	Encrypted bool     `json:"encrypted"`
	Files     []string `json:"files"`
}

func NewSplitCommand() *cobra.Command {
	var (
		parts        int
		threshold    int
		macAlgorithm string
		useStdin     bool
		hexInput     bool
		fromMnemonic bool
		outputFile   string
		outputDir    string
		store        bool
		encrypt      bool
		passwordFile string
		name         string
	)

	defaults := config.DefaultConfig().Defaults

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a secret into tagged shares",
		Long: `Split a secret into shares using Shamir's Secret Sharing and attach
pairwise information-checking tags to every share. Any threshold number
of shares that pass checking reconstructs the secret.

Without --output or --dir the share file is written to stdout as JSON.
Parts, threshold and MAC default to the values in the config file.`,
		Example: `  # Split a hex secret into 5 shares with threshold 3
  rss split -n 5 -t 3 --hex

  # Split a BIP39 mnemonic, one encrypted file per share
  rss split --mnemonic --dir ./shares --encrypt

  # Keep the shares in the local share store
  rss split --hex --store --name "backup key"

  # Split data from stdin into a single share file
  echo "secret data" | rss split --stdin -o shares.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			sc := s.cfg.SharingConfig()
			if cmd.Flags().Changed("parts") {
				sc.Parts = parts
			}
			if cmd.Flags().Changed("threshold") {
				sc.Threshold = threshold
			}
			if cmd.Flags().Changed("mac") {
				sc.MACAlgorithm = macAlgorithm
			}

			if err := validation.ValidateSplitParams(sc.Parts, sc.Threshold); err != nil {
				return err
			}
			if err := validation.ValidateMACAlgorithm(sc.MACAlgorithm); err != nil {
				return err
			}

			toFiles := outputFile != "" || outputDir != "" || store
			if !cmd.Flags().Changed("encrypt") {
				encrypt = s.cfg.Security.EncryptShareFiles && toFiles
			}
			if encrypt && !toFiles {
				return fmt.Errorf("--encrypt requires --output, --dir or --store")
			}

			var secret []byte
			switch {
			case fromMnemonic:
				secret, err = s.readMnemonicSecret()
			case useStdin:
				secret, err = s.readAll()
			default:
				secret, err = s.readHidden("Enter your secret: ")
			}
			if err != nil {
				return fmt.Errorf("failed to read secret: %w", err)
			}
			defer secure.Zero(secret)

			if hexInput && !fromMnemonic {
				decoded, err := validation.DecodeHexSecret(string(secret))
				if err != nil {
					return err
				}
				secure.Zero(secret)
				secret = decoded
			}

			if len(secret) == 0 {
				return fmt.Errorf("secret cannot be empty")
			}

			sharer, err := s.newSharer(sc)
			if err != nil {
				return err
			}

			shares, err := sharer.Split(secret)
			if err != nil {
				return fmt.Errorf("failed to split secret: %w", err)
			}
			defer func() {
				for _, sh := range shares {
					secure.Zero(sh.YValues)
					secure.ZeroAll(sh.MacKeys)
				}
			}()

			file := storage.NewShareFile(sc.Parts, sc.Threshold, sc.MACAlgorithm, shares)
			s.logger.Debug("created share set", "set_id", file.SetID, "fingerprint", mnemonic.Fingerprint(secret))

			if !toFiles {
				if err := s.writeJSON(file); err != nil {
					return err
				}
				return s.close()
			}

			var password []byte
			if encrypt {
				if password, err = s.newPassword(passwordFile); err != nil {
					return err
				}
				defer secure.Zero(password)
			}

			result := SplitResult{
				SetID:     file.SetID,
				Parts:     file.Parts,
				Threshold: file.Threshold,
				MAC:       file.MAC,
				Encrypted: encrypt,
			}

			if outputFile != "" {
				if err := storage.Write(outputFile, file, password); err != nil {
					return err
				}
				result.Files = append(result.Files, outputFile)
			}

			if store {
				shareStore, err := s.openStore()
				if err != nil {
					return err
				}
				set, err := shareStore.AddShareSet(file, name, password)
				if err != nil {
					return err
				}
				paths, err := shareStore.SharePaths(set.ID)
				if err != nil {
					return err
				}
				result.Files = append(result.Files, paths...)
			}

			if outputDir != "" {
				for _, single := range file.PerShare() {
					path := filepath.Join(outputDir, shareFileName(single.Shares[0].ID))
					if err := storage.Write(path, single, password); err != nil {
						return err
					}
					result.Files = append(result.Files, path)
				}
			}

			if s.jsonOutput {
				if err := s.writeJSON(result); err != nil {
					return err
				}
			} else {
				s.printSplitResult(result)
			}

			return s.close()
		},
	}

	cmd.Flags().IntVarP(&parts, "parts", "n", defaults.Parts, "Total number of shares to create")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", defaults.Threshold, "Minimum shares needed to reconstruct")
	cmd.Flags().StringVar(&macAlgorithm, "mac", defaults.MACAlgorithm, "MAC algorithm for information checking")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "Read secret from stdin")
	cmd.Flags().BoolVar(&hexInput, "hex", false, "Secret is hex encoded")
	cmd.Flags().BoolVar(&fromMnemonic, "mnemonic", false, "Secret is a BIP39 mnemonic phrase")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write all shares to one share file")
	cmd.Flags().StringVar(&outputDir, "dir", "", "Write one share file per share into this directory")
	cmd.Flags().BoolVar(&store, "store", false, "Keep the shares in the local share store")
	cmd.Flags().StringVar(&name, "name", "", "Name of the set in the share store")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "Encrypt share files with a password")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "Read the share file password from this file")

	cmd.MarkFlagsMutuallyExclusive("stdin", "mnemonic")
	cmd.MarkFlagsMutuallyExclusive("hex", "mnemonic")
	cmd.MarkFlagsMutuallyExclusive("dir", "store")

	return cmd
}

func shareFileName(id byte) string {
	return fmt.Sprintf("share-%03d.json", id)
}

func (s *session) readMnemonicSecret() ([]byte, error) {
	words, err := s.readHidden("Enter your mnemonic phrase (12-24 words): ")
	if err != nil {
		return nil, err
	}
	defer secure.Zero(words)

	m, err := mnemonic.FromWords(validation.SanitizeInput(string(words)))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("read mnemonic secret", "words", m.WordCount())
	return m.Entropy()
}

func (s *session) printSplitResult(result SplitResult) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(s.out)
	yellow.Fprintln(s.out, "=== ROBUST SECRET SHARES ===")
	fmt.Fprintln(s.out)

	green.Fprintf(s.out, "Created %d shares with threshold %d\n", result.Parts, result.Threshold)
	fmt.Fprintf(s.out, "Any %d shares that pass checking reconstruct the secret\n", result.Threshold)
	fmt.Fprintf(s.out, "Up to %d corrupted shares are tolerated\n\n", result.Parts-result.Threshold)

	cyan.Fprint(s.out, "Set ID: ")
	fmt.Fprintln(s.out, result.SetID)
	cyan.Fprint(s.out, "MAC:    ")
	fmt.Fprintln(s.out, result.MAC)
	fmt.Fprintln(s.out)

	for _, f := range result.Files {
		fmt.Fprintf(s.out, "  %s\n", f)
	}
	fmt.Fprintln(s.out)

	red.Fprintln(s.out, "⚠️  SECURITY WARNING:")
	fmt.Fprintln(s.out, "- Store each share in a different secure location")
	if !result.Encrypted {
		fmt.Fprintln(s.out, "- Share files are not encrypted, use --encrypt to protect them")
	}
	fmt.Fprintln(s.out, "- Test recovery before relying on this backup")
}
