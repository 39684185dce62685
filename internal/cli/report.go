package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/exam-simulator/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Format string
	Out    string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Export an archived report",
		Long: `Export the report of a finished session from the archive.

Examples:
  examsim report 0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b
  examsim report 0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b --format pdf --out result.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(opts.Format)
			if err != nil {
				return err
			}
			cfg, log, err := loadConfig(opts.RootOptions)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.archive.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if opts.Out != "" {
				file, err := os.Create(opts.Out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			if f == report.FormatJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return report.Render(w, f, rep)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "md", "md|html|pdf|xlsx|json")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write to file instead of stdout")

	return cmd
}
