package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gaborage/licence-admin/applications"
)

// NewStatsCommand creates the stats command
func NewStatsCommand(root *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show application counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			s, err := openSession(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.service.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]applications.Stats{"stats": stats})
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table or json)")
	return cmd
}

// DashboardOptions holds options for the dashboard command
type DashboardOptions struct {
	Page   int
	Status string
	// Match narrows the loaded page without another request
	Match  string
	Output string
}

// NewDashboardCommand creates the dashboard command, the counters and the
// first page of applications in one view
func NewDashboardCommand(root *Options) *cobra.Command {
	opts := &DashboardOptions{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show counters and the latest applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(opts.Output); err != nil {
				return err
			}
			q, err := applications.DefaultListQuery().WithFilter(applications.FilterStatus, opts.Status)
			if err != nil {
				return err
			}
			if q, err = q.WithFilter(applications.FilterPage, strconv.Itoa(opts.Page)); err != nil {
				return err
			}

			s, err := openSession(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := s.service.Load(cmd.Context(), q)
			if err != nil {
				return err
			}
			shown := d.Applications
			if opts.Match != "" {
				shown = applications.Filter(d.Applications, "", opts.Match)
			}

			out := cmd.OutOrStdout()
			if opts.Output == outputJSON {
				var statsErr string
				if d.StatsErr != nil {
					statsErr = d.StatsErr.Error()
				}
				view := *d
				view.Applications = shown
				return writeJSON(out, struct {
					*applications.Dashboard
					StatsError string `json:"statsError,omitempty"`
				}{&view, statsErr})
			}
			if d.StatsErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: counters unavailable: %v\n", d.StatsErr)
			} else if err := printStats(out, d.Stats); err != nil {
				return err
			}
			fmt.Fprintln(out)
			if opts.Match != "" {
				fmt.Fprintf(out, "%d of %d applications on this page match %q\n\n", len(shown), len(d.Applications), opts.Match)
			}
			return printApplications(out, shown, d.Pagination)
		},
	}
	cmd.Flags().IntVar(&opts.Page, "page", applications.DefaultPage, "Page number")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Only applications with this status")
	cmd.Flags().StringVar(&opts.Match, "match", "", "Show only rows of the loaded page whose name, id or email contains this text")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", outputTable, "Output format (table or json)")
	return cmd
}
