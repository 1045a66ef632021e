package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gaborage/licence-admin/applications"
)

// ListOptions holds options for the list command
type ListOptions struct {
	Page      int
	Limit     int
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	Output    string
}

// NewListCommand creates the list command
func NewListCommand(root *Options) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Long: `Fetch one page of applications, optionally filtered by status or a search term.
Changing a filter starts again from page 1 unless --page is given. Sorting by a
column without --sort-order sorts it ascending, or descending when it already was.`,
		Example: `  # Newest applications first
  licence-admin list

  # Second page of approved applications, sorted by name
  licence-admin list --status approved --page 2 --sort-by full_name --sort-order ASC`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, root, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", applications.DefaultPage, "Page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", applications.DefaultLimit, "Applications per page")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Only applications with this status (all for every status)")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Match name, application id or email")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", applications.DefaultSortBy, "Sort column")
	cmd.Flags().StringVar(&opts.SortOrder, "sort-order", applications.DefaultSortOrder, "Sort order (ASC or DESC)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", outputTable, "Output format (table or json)")

	return cmd
}

// listQuery applies the passed flags to the default query the way the
// dashboard applies filter changes. The page goes last so it survives them.
func listQuery(flags *pflag.FlagSet, opts *ListOptions) (applications.ListQuery, error) {
	q := applications.DefaultListQuery()

	status := opts.Status
	if status == "all" {
		status = ""
	}
	changes := []struct {
		flag, filter, value string
	}{
		{"status", applications.FilterStatus, status},
		{"search", applications.FilterSearch, opts.Search},
		{"limit", applications.FilterLimit, strconv.Itoa(opts.Limit)},
	}
	for _, c := range changes {
		if !flags.Changed(c.flag) {
			continue
		}
		var err error
		if q, err = q.WithFilter(c.filter, c.value); err != nil {
			return q, err
		}
	}

	if flags.Changed("sort-by") {
		if !applications.IsSortable(opts.SortBy) {
			return q, fmt.Errorf("cannot sort by %q (use one of %v)", opts.SortBy, applications.SortableColumns)
		}
		q = q.ToggleSort(opts.SortBy)
	}
	if flags.Changed("sort-order") {
		var err error
		if q, err = q.WithFilter(applications.FilterSortOrder, opts.SortOrder); err != nil {
			return q, err
		}
	}

	if flags.Changed("page") {
		return q.WithFilter(applications.FilterPage, strconv.Itoa(opts.Page))
	}
	return q, nil
}

func runList(cmd *cobra.Command, root *Options, opts *ListOptions) error {
	if err := validateOutput(opts.Output); err != nil {
		return err
	}
	q, err := listQuery(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	s, err := openSession(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.service.List(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pagination := res.Pagination(q)
	if opts.Output == outputJSON {
		return writeJSON(out, struct {
			Applications []applications.Application `json:"applications"`
			Pagination   applications.Pagination    `json:"pagination"`
		}{res.Applications, pagination})
	}
	return printApplications(out, res.Applications, pagination)
}
