package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/gaborage/licence-admin/applications"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printApplications(w io.Writer, apps []applications.Application, p applications.Pagination) error {
	if len(apps) == 0 {
		_, err := fmt.Fprintln(w, "No applications found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAPPLICATION\tNAME\tEMAIL\tPHONE\tSTATUS\tADMIN\tCREATED")
	for _, app := range apps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			applications.FormatID(app.ID),
			app.ApplicationID,
			app.FullName,
			app.Email,
			app.Phone,
			app.Status,
			app.EffectiveAdminStatus(),
			applications.FormatDate(app.CreatedAt),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d applications)\n", p.CurrentPage, p.TotalPages, p.TotalItems)
	return err
}

func printStats(w io.Writer, s applications.Stats) error {
	_, err := fmt.Fprintf(w, "Total: %d  Pending: %d  Approved: %d  Rejected: %d\n",
		s.Total, s.Pending, s.Approved, s.Rejected)
	return err
}

func printApplication(w io.Writer, app *applications.Application) error {
	yesNo := "No"
	if app.FitToDrive {
		yesNo = "Yes"
	}
	rows := [][2]string{
		{"ID", applications.FormatID(app.ID)},
		{"Application", app.ApplicationID},
		{"Name", app.FullName},
		{"Email", app.Email},
		{"Phone", app.Phone},
		{"Date of birth", applications.FormatDate(app.DateOfBirth)},
		{"Gender", app.Gender},
		{"Blood group", app.BloodGroup},
		{"Doctor", app.DoctorName},
		{"Hospital", app.Hospital},
		{"Issued", applications.FormatDate(app.IssuedDate)},
		{"Expires", applications.FormatDate(app.ExpiryDate)},
		{"Fit to drive", yesNo},
		{"Vision", app.Vision},
		{"Hearing", app.Hearing},
		{"Status", string(app.Status)},
		{"Admin status", string(app.EffectiveAdminStatus())},
		{"Remarks", app.Remarks},
		{"Created", applications.FormatDate(app.CreatedAt)},
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		value := row[1]
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], value)
	}
	return tw.Flush()
}
