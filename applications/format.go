package applications

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const notAvailable = "N/A"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// FormatID renders a numeric id as #00042, or N/A when unset
func FormatID(id int) string {
	if id == 0 {
		return notAvailable
	}
	return fmt.Sprintf("#%05d", id)
}

// FormatDate renders a backend timestamp as YYYY-MM-DD. Empty values become
// N/A and values it cannot parse are returned unchanged.
func FormatDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return s
}

// Filter narrows an already fetched list. An empty status or "all" keeps every
// status; search matches application id, numeric id, name and email ignoring case.
func Filter(apps []Application, status, search string) []Application {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]Application, 0, len(apps))
	for _, app := range apps {
		if status != "" && status != "all" && string(app.Status) != status {
			continue
		}
		if search != "" && !matches(app, search) {
			continue
		}
		out = append(out, app)
	}
	return out
}

// matches expects needle to be lower-cased
func matches(app Application, needle string) bool {
	for _, field := range []string{app.ApplicationID, strconv.Itoa(app.ID), app.FullName, app.Email} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
