package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mind-engage/exam-simulator/internal/questionset"
)

// NewSetsCommand creates the sets command.
func NewSetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List available question sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			store := questionset.NewStore(cfg.QuestionsDir, log)
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SET\tQUESTIONS")
			for _, id := range ids {
				qs, err := store.Load(cmd.Context(), id)
				if err != nil {
					fmt.Fprintf(tw, "%s\tinvalid: %v\n", id, err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%d\n", id, len(qs))
			}
			return tw.Flush()
		},
	}
}
