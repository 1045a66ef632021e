package fakebackend

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gaborage/licence-admin/applications"
)

// Store is an in-memory set of applications safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	apps []applications.Application
}

// NewStore creates a store holding a copy of apps
func NewStore(apps []applications.Application) *Store {
	return &Store{apps: slices.Clone(apps)}
}

// All returns a copy of every application in insertion order
func (s *Store) All() []applications.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.apps)
}

// Get looks up an application by its application id
func (s *Store) Get(applicationID string) (applications.Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if app.ApplicationID == applicationID {
			return app, true
		}
	}
	return applications.Application{}, false
}

// List filters, sorts and paginates the store the way the backend does
func (s *Store) List(q applications.ListQuery) applications.ListResult {
	s.mu.RLock()
	matched := make([]applications.Application, 0, len(s.apps))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, app := range s.apps {
		if q.Status != "" && app.Status != q.Status {
			continue
		}
		if search != "" && !matchesSearch(app, search) {
			continue
		}
		matched = append(matched, app)
	}
	s.mu.RUnlock()

	if q.Page < 1 {
		q.Page = applications.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = applications.DefaultLimit
	}
	sortApplications(matched, q.SortBy, q.SortOrder)

	total := len(matched)
	totalPages := (total + q.Limit - 1) / q.Limit
	start := min((q.Page-1)*q.Limit, total)
	end := min(start+q.Limit, total)

	return applications.ListResult{
		Applications: matched[start:end],
		TotalPages:   totalPages,
		TotalItems:   total,
	}
}

// Stats counts applications per status
func (s *Store) Stats() applications.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := applications.Stats{Total: len(s.apps)}
	for _, app := range s.apps {
		switch app.Status {
		case applications.StatusPending:
			stats.Pending++
		case applications.StatusApproved:
			stats.Approved++
		case applications.StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}

// Update applies req to the application with the given application id
func (s *Store) Update(applicationID string, req applications.UpdateRequest) (applications.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ApplicationID == applicationID {
			req.Apply(&s.apps[i])
			return s.apps[i], true
		}
	}
	return applications.Application{}, false
}

// matchesSearch expects needle to be lower-cased
func matchesSearch(app applications.Application, needle string) bool {
	return strings.Contains(strings.ToLower(app.FullName), needle) ||
		strings.Contains(strings.ToLower(app.ApplicationID), needle) ||
		strings.Contains(strings.ToLower(app.Email), needle)
}

func sortApplications(apps []applications.Application, sortBy, sortOrder string) {
	key := sortKey(sortBy)
	desc := strings.EqualFold(sortOrder, applications.SortDesc)
	slices.SortStableFunc(apps, func(a, b applications.Application) int {
		c := key(a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
}

func sortKey(column string) func(a, b applications.Application) int {
	switch column {
	case "id":
		return func(a, b applications.Application) int { return cmp.Compare(a.ID, b.ID) }
	case "full_name":
		return func(a, b applications.Application) int { return cmp.Compare(a.FullName, b.FullName) }
	case "status":
		return func(a, b applications.Application) int { return cmp.Compare(a.Status, b.Status) }
	case "phone":
		return func(a, b applications.Application) int { return cmp.Compare(a.Phone, b.Phone) }
	case "email":
		return func(a, b applications.Application) int { return cmp.Compare(a.Email, b.Email) }
	default:
		return func(a, b applications.Application) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	}
}

var (
	seedNames = []string{
		"Amara Perera", "Kasun Silva", "Nimali Fernando", "Ruwan Jayasuriya",
		"Dilini Wickramasinghe", "Tharindu Bandara", "Sachini Rathnayake", "Isuru Gunawardena",
		"Hiruni Senanayake", "Chamara Dissanayake", "Madhavi Herath", "Nuwan Kumara",
	}
	seedStatuses = []applications.Status{
		applications.StatusPending, applications.StatusApproved, applications.StatusSubmitted,
		applications.StatusRejected, applications.StatusPending, applications.StatusCancelled,
	}
	seedAdminStatuses = []applications.AdminStatus{
		"", applications.AdminVerified, applications.AdminUnverified, applications.AdminOnHold,
	}
	seedBloodGroups = []string{"A+", "B+", "O+", "AB-", "O-"}
	seedGenders     = []string{"Female", "Male"}
)

// SeedApplications returns n deterministic sample applications
func SeedApplications(n int) []applications.Application {
	base := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	apps := make([]applications.Application, 0, n)
	for i := range n {
		id := i + 1
		name := seedNames[i%len(seedNames)]
		created := base.Add(time.Duration(i) * 26 * time.Hour)
		apps = append(apps, applications.Application{
			ID:                   id,
			ApplicationID:        fmt.Sprintf("DL-2025-%04d", id),
			FullName:             name,
			Email:                fmt.Sprintf("%s.%d@example.lk", strings.ToLower(strings.ReplaceAll(name, " ", ".")), id),
			Phone:                fmt.Sprintf("+94 77 %03d %04d", 100+id, 1000+id*7),
			DateOfBirth:          time.Date(1970+i%30, time.Month(1+i%12), 1+i%28, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
			Gender:               seedGenders[i%len(seedGenders)],
			BloodGroup:           seedBloodGroups[i%len(seedBloodGroups)],
			DoctorName:           "Dr. " + seedNames[(i+5)%len(seedNames)],
			Hospital:             "National Hospital",
			IssuedDate:           created.Format(time.DateOnly),
			ExpiryDate:           created.AddDate(1, 0, 0).Format(time.DateOnly),
			FitToDrive:           i%5 != 3,
			Vision:               "6/6",
			Hearing:              "Normal",
			Status:               seedStatuses[i%len(seedStatuses)],
			AdminStatus:          seedAdminStatuses[i%len(seedAdminStatuses)],
			MedicalCertificateID: fmt.Sprintf("MC-%05d", 40000+id),
			PaymentReferenceID:   fmt.Sprintf("PAY-%06d", 700000+id*13),
			CreatedAt:            created.Format(time.RFC3339),
		})
	}
	return apps
}
