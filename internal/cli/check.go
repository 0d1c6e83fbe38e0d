package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/rss/pkg/crypto/secretsharing"
	"github.com/Davincible/rss/pkg/share"
)

type ShareStatus struct {
	ID      int  `json:"id"`
	Accepts int  `json:"accepts"`
	Valid   bool `json:"valid"`
}

type CheckResult struct {
	SetID       string        `json:"set_id"`
	Threshold   int           `json:"threshold"`
	Shares      []ShareStatus `json:"shares"`
	Recoverable bool          `json:"recoverable"`
}

// NewCheckCommand creates a command that runs information checking
// without reconstructing the secret.
func NewCheckCommand() *cobra.Command {
	var (
		passwordFile string
		setID        string
	)

	cmd := &cobra.Command{
		Use:   "check [share-file...]",
		Short: "Check shares without reconstructing the secret",
		Long: `Runs information checking over the shares in the given files and
reports how many shares accept each one. A share is valid when at least
threshold shares accept it. The command fails when fewer than threshold
shares are valid.`,
		Example: `  # Check a directory of share files
  rss check shares/*.json

  # Check a stored set and record the result in the store
  rss check --set 3f2a`,
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

			counts, err := sharer.AcceptCounts(file.Shares)
			if err != nil {
				return err
			}

			valid, rejected, err := sharer.Check(file.Shares)
			if err != nil {
				return err
			}

			result := CheckResult{
				SetID:       file.SetID,
				Threshold:   file.Threshold,
				Recoverable: len(valid) >= file.Threshold,
			}
			for _, sh := range file.Shares {
				result.Shares = append(result.Shares, ShareStatus{
					ID:      int(sh.ID),
					Accepts: counts[sh.ID],
					Valid:   counts[sh.ID] >= file.Threshold,
				})
			}

			if setID != "" {
				if err := s.recordVerification(file.SetID, share.IDs(valid), share.IDs(rejected)); err != nil {
					return err
				}
			}

			if s.jsonOutput {
				if err := s.writeJSON(result); err != nil {
					return err
				}
			} else {
				s.printCheckResult(result)
			}

			if err := s.close(); err != nil {
				return err
			}

			if !result.Recoverable {
				return fmt.Errorf("%w: %d valid, need %d", secretsharing.ErrNotEnoughValid, len(valid), file.Threshold)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&passwordFile, "password-file", "", "Read the share file password from this file")
	cmd.Flags().StringVar(&setID, "set", "", "Use the shares of this stored set (id or id prefix)")

	return cmd
}

func (s *session) printCheckResult(result CheckResult) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(s.out)
	cyan.Fprintf(s.out, "Set %s (threshold %d)\n", result.SetID, result.Threshold)
	fmt.Fprintln(s.out, strings.Repeat("=", 40))

	fmt.Fprintf(s.out, "%-8s %-8s %s\n", "SHARE", "ACCEPTS", "STATUS")
	validCount := 0
	for _, st := range result.Shares {
		fmt.Fprintf(s.out, "%-8d %-8d ", st.ID, st.Accepts)
		if st.Valid {
			validCount++
			green.Fprintln(s.out, "valid")
		} else {
			red.Fprintln(s.out, "rejected")
		}
	}
	fmt.Fprintln(s.out)

	if result.Recoverable {
		green.Fprintf(s.out, "✓ %d of %d shares valid, secret can be recovered\n", validCount, len(result.Shares))
	} else {
		red.Fprintf(s.out, "✗ %d of %d shares valid, need %d\n", validCount, len(result.Shares), result.Threshold)
	}
}

func (s *session) recordVerification(setID string, valid, rejected []byte) error {
	store, err := s.openStore()
	if err != nil {
		return err
	}
	return store.RecordVerification(setID, valid, rejected)
}
