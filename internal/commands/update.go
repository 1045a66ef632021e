package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gaborage/licence-admin/applications"
)

// ErrNothingToUpdate is returned when update is run without any field flag
var ErrNothingToUpdate = errors.New("no fields to update: pass at least one field flag")

// stringFields maps flag names to the string fields of UpdateRequest
var stringFields = []struct {
	flag  string
	usage string
	field func(*applications.UpdateRequest) **string
}{
	{"full-name", "Applicant full name", func(r *applications.UpdateRequest) **string { return &r.FullName }},
	{"email", "Applicant email", func(r *applications.UpdateRequest) **string { return &r.Email }},
	{"phone", "Applicant phone number", func(r *applications.UpdateRequest) **string { return &r.Phone }},
	{"date-of-birth", "Date of birth (YYYY-MM-DD)", func(r *applications.UpdateRequest) **string { return &r.DateOfBirth }},
	{"gender", "Gender (Male, Female or Other)", func(r *applications.UpdateRequest) **string { return &r.Gender }},
	{"blood-group", "Blood group", func(r *applications.UpdateRequest) **string { return &r.BloodGroup }},
	{"doctor-name", "Examining doctor", func(r *applications.UpdateRequest) **string { return &r.DoctorName }},
	{"hospital", "Hospital", func(r *applications.UpdateRequest) **string { return &r.Hospital }},
	{"issued-date", "Medical issue date (YYYY-MM-DD)", func(r *applications.UpdateRequest) **string { return &r.IssuedDate }},
	{"expiry-date", "Medical expiry date (YYYY-MM-DD)", func(r *applications.UpdateRequest) **string { return &r.ExpiryDate }},
	{"vision", "Vision result", func(r *applications.UpdateRequest) **string { return &r.Vision }},
	{"hearing", "Hearing result", func(r *applications.UpdateRequest) **string { return &r.Hearing }},
	{"remarks", "Remarks", func(r *applications.UpdateRequest) **string { return &r.Remarks }},
}

// NewUpdateCommand creates the update command
func NewUpdateCommand(root *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "update <application-id>",
		Short: "Edit an application",
		Long: `Send the given fields for one application, then reload the counters.
Only flags that are passed are sent; everything else keeps its value.`,
		Example: `  # Approve and verify an application
  licence-admin update DL-2025-0003 --status approved --admin-status verified

  # Record a failed medical
  licence-admin update DL-2025-0007 --fit-to-drive=false --remarks "vision below standard"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			req, err := updateRequestFromFlags(cmd.Flags())
			if err != nil {
				return err
			}

			s, err := openSession(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			app, d, err := s.service.UpdateAndReload(cmd.Context(), args[0], req, applications.DefaultListQuery())
			var reloadErr *applications.ReloadError
			if err != nil && !errors.As(err, &reloadErr) {
				return err
			}
			if reloadErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: update applied but the dashboard could not be reloaded: %v\n", reloadErr.Err)
			}

			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, app)
			}
			fmt.Fprintf(out, "Application %s updated.\n", args[0])
			if app != nil {
				fmt.Fprintln(out)
				if err := printApplication(out, app); err != nil {
					return err
				}
			}
			if d != nil && d.StatsErr == nil {
				fmt.Fprintln(out)
				return printStats(out, d.Stats)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("status", "", "Status (pending, submitted, approved, rejected, cancelled)")
	flags.String("admin-status", "", "Admin status (unverified, verified, on_hold)")
	flags.Bool("fit-to-drive", false, "Whether the applicant is fit to drive")
	for _, f := range stringFields {
		flags.String(f.flag, "", f.usage)
	}
	flags.StringVarP(&output, "output", "o", outputTable, "Output format (table or json)")

	return cmd
}

// updateRequestFromFlags sets only the fields whose flags were passed
func updateRequestFromFlags(flags *pflag.FlagSet) (applications.UpdateRequest, error) {
	var req applications.UpdateRequest

	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		status := applications.Status(v)
		req.Status = &status
	}
	if flags.Changed("admin-status") {
		v, _ := flags.GetString("admin-status")
		adminStatus := applications.AdminStatus(v)
		req.AdminStatus = &adminStatus
	}
	if flags.Changed("fit-to-drive") {
		v, err := flags.GetBool("fit-to-drive")
		if err != nil {
			return req, err
		}
		req.FitToDrive = &v
	}
	for _, f := range stringFields {
		if !flags.Changed(f.flag) {
			continue
		}
		v, _ := flags.GetString(f.flag)
		*f.field(&req) = &v
	}

	if req.IsEmpty() {
		return req, ErrNothingToUpdate
	}
	return req, nil
}
