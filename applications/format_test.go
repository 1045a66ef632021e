package applications

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatID(t *testing.T) {
	assert.Equal(t, "#00042", FormatID(42))
	assert.Equal(t, "#123456", FormatID(123456))
	assert.Equal(t, "N/A", FormatID(0))
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "N/A"},
		{"  ", "N/A"},
		{"2025-01-06T09:00:00Z", "2025-01-06"},
		{"2025-01-06T09:00:00.123+05:30", "2025-01-06"},
		{"2025-01-06 09:00:00", "2025-01-06"},
		{"2025-01-06", "2025-01-06"},
		{"yesterday", "yesterday"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDate(tt.in), "input %q", tt.in)
	}
}

func TestFilter(t *testing.T) {
	apps := []Application{
		{ID: 1, ApplicationID: "DL-1", FullName: "Amara Perera", Email: "amara@example.lk", Status: StatusPending},
		{ID: 2, ApplicationID: "DL-2", FullName: "Kasun Silva", Email: "kasun@example.lk", Status: StatusApproved},
		{ID: 13, ApplicationID: "DL-13", FullName: "Nimali Fernando", Email: "NIMALI@example.lk", Status: StatusApproved},
	}

	ids := func(list []Application) []int {
		out := make([]int, 0, len(list))
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}

	assert.Equal(t, []int{1, 2, 13}, ids(Filter(apps, "", "")))
	assert.Equal(t, []int{1, 2, 13}, ids(Filter(apps, "all", "")))
	assert.Equal(t, []int{2, 13}, ids(Filter(apps, "approved", "")))
	assert.Equal(t, []int{13}, ids(Filter(apps, "approved", "nimali@")))
	assert.Equal(t, []int{1}, ids(Filter(apps, "", "  PERERA ")))
	assert.Equal(t, []int{1, 13}, ids(Filter(apps, "", "1")))
	assert.Empty(t, Filter(apps, "rejected", ""))
	assert.Empty(t, Filter(nil, "", ""))
}

func TestEffectiveAdminStatus(t *testing.T) {
	assert.Equal(t, AdminUnverified, Application{}.EffectiveAdminStatus())
	assert.Equal(t, AdminOnHold, Application{AdminStatus: AdminOnHold}.EffectiveAdminStatus())
}

func TestUpdateRequestApply(t *testing.T) {
	app := Application{FullName: "Old", FitToDrive: true, Remarks: "keep"}
	name := "New Name"
	fit := false

	req := UpdateRequest{FullName: &name, FitToDrive: &fit}
	assert.False(t, req.IsEmpty())
	assert.True(t, UpdateRequest{}.IsEmpty())

	req.Apply(&app)
	assert.Equal(t, "New Name", app.FullName)
	assert.False(t, app.FitToDrive)
	assert.Equal(t, "keep", app.Remarks)
}
