package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/rss/pkg/sharestore"
)

// NewListCommand lists the sets kept in the local share store.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List share sets in the local share store",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			store, err := s.openStore()
			if err != nil {
				return err
			}

			sets := store.ListShareSets()
			if s.jsonOutput {
				if sets == nil {
					sets = []*sharestore.ShareSet{}
				}
				return s.writeJSON(sets)
			}

			if len(sets) == 0 {
				fmt.Fprintln(s.out, "No share sets stored.")
				return nil
			}

			cyan := color.New(color.FgCyan, color.Bold)
			cyan.Fprintf(s.out, "%d share set(s)\n\n", len(sets))

			w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTHRESHOLD\tMAC\tSHARES\tCREATED")
			for _, set := range sets {
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
					set.ID[:8], set.Name, set.Threshold, set.Parts, set.MAC,
					shareSummary(set), set.Created.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	return cmd
}

// NewDeleteCommand removes a set from the local share store.
func NewDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <set-id>",
		Short: "Delete a share set from the local share store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			store, err := s.openStore()
			if err != nil {
				return err
			}

			set, err := store.GetShareSet(args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteShareSet(set.ID); err != nil {
				return err
			}

			s.logger.Info("deleted share set", "set_id", set.ID)
			fmt.Fprintf(s.out, "Deleted share set %s\n", set.ID)
			return nil
		},
	}

	return cmd
}

// shareSummary counts shares per status, e.g. "3 valid, 1 rejected".
func shareSummary(set *sharestore.ShareSet) string {
	order := []sharestore.ShareStatus{
		sharestore.ShareStatusValid,
		sharestore.ShareStatusUnverified,
		sharestore.ShareStatusRejected,
		sharestore.ShareStatusMissing,
	}

	counts := make(map[sharestore.ShareStatus]int)
	for _, info := range set.Shares {
		counts[info.Status]++
	}

	var parts []string
	for _, status := range order {
		if counts[status] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
		}
	}
	return strings.Join(parts, ", ")
}
