// Package applications is the admin side of the driving-licence applications
// backend: listing, statistics and edits, expressed over apiclient.
package applications

// Status is the lifecycle state of an application
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// AdminStatus is the verification state set by an administrator
type AdminStatus string

const (
	AdminUnverified AdminStatus = "unverified"
	AdminVerified   AdminStatus = "verified"
	AdminOnHold     AdminStatus = "on_hold"
)

// Application is a licence application as served by the backend
type Application struct {
	ID                   int         `json:"id"`
	ApplicationID        string      `json:"application_id"`
	FullName             string      `json:"full_name"`
	Email                string      `json:"email"`
	Phone                string      `json:"phone"`
	DateOfBirth          string      `json:"date_of_birth"`
	Gender               string      `json:"gender"`
	BloodGroup           string      `json:"blood_group"`
	DoctorName           string      `json:"doctor_name"`
	Hospital             string      `json:"hospital"`
	IssuedDate           string      `json:"issued_date"`
	ExpiryDate           string      `json:"expiry_date"`
	FitToDrive           bool        `json:"is_fit_to_drive"`
	Vision               string      `json:"vision"`
	Hearing              string      `json:"hearing"`
	Remarks              string      `json:"remarks"`
	Status               Status      `json:"status"`
	AdminStatus          AdminStatus `json:"admin_status"`
	MedicalCertificateID string      `json:"medical_certificate_id"`
	PaymentReferenceID   string      `json:"payment_reference_id"`
	PhotoURL             string      `json:"photo_url"`
	CreatedAt            string      `json:"created_at"`
}

// EffectiveAdminStatus returns the admin status, treating an absent one as unverified.
func (a Application) EffectiveAdminStatus() AdminStatus {
	if a.AdminStatus == "" {
		return AdminUnverified
	}
	return a.AdminStatus
}

// Stats holds the dashboard counters. Counters the backend leaves out are zero.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// ListResult is one page of applications
type ListResult struct {
	Applications []Application `json:"applications"`
	TotalPages   int           `json:"totalPages"`
	TotalItems   int           `json:"totalItems"`
}

// Pagination describes where a page sits in the result set
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasPrev     bool `json:"hasPrev"`
	HasNext     bool `json:"hasNext"`
}

// Pagination derives the page position for the query that produced r.
// A missing page count counts as a single page.
func (r *ListResult) Pagination(q ListQuery) Pagination {
	q = q.normalized()
	totalPages := r.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		TotalItems:  r.TotalItems,
		HasPrev:     q.Page > 1,
		HasNext:     q.Page < totalPages,
	}
}

// UpdateRequest holds the editable fields of an application. Nil fields are
// left out of the request body and keep their current value.
type UpdateRequest struct {
	Status      *Status      `json:"status,omitempty" validate:"omitempty,oneof=pending submitted approved rejected cancelled"`
	AdminStatus *AdminStatus `json:"admin_status,omitempty" validate:"omitempty,oneof=unverified verified on_hold"`
	FullName    *string      `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Email       *string      `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string      `json:"phone,omitempty" validate:"omitempty,max=32"`
	DateOfBirth *string      `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string      `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	BloodGroup  *string      `json:"blood_group,omitempty" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	DoctorName  *string      `json:"doctor_name,omitempty" validate:"omitempty,max=200"`
	Hospital    *string      `json:"hospital,omitempty" validate:"omitempty,max=200"`
	IssuedDate  *string      `json:"issued_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate  *string      `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	FitToDrive  *bool        `json:"is_fit_to_drive,omitempty"`
	Vision      *string      `json:"vision,omitempty" validate:"omitempty,max=200"`
	Hearing     *string      `json:"hearing,omitempty" validate:"omitempty,max=200"`
	Remarks     *string      `json:"remarks,omitempty" validate:"omitempty,max=1000"`
}

// IsEmpty reports whether no field is set
func (r UpdateRequest) IsEmpty() bool {
	return r == UpdateRequest{}
}

// Apply copies the set fields of r onto app.
func (r UpdateRequest) Apply(app *Application) {
	setIf(&app.Status, r.Status)
	setIf(&app.AdminStatus, r.AdminStatus)
	setIf(&app.FullName, r.FullName)
	setIf(&app.Email, r.Email)
	setIf(&app.Phone, r.Phone)
	setIf(&app.DateOfBirth, r.DateOfBirth)
	setIf(&app.Gender, r.Gender)
	setIf(&app.BloodGroup, r.BloodGroup)
	setIf(&app.DoctorName, r.DoctorName)
	setIf(&app.Hospital, r.Hospital)
	setIf(&app.IssuedDate, r.IssuedDate)
	setIf(&app.ExpiryDate, r.ExpiryDate)
	setIf(&app.FitToDrive, r.FitToDrive)
	setIf(&app.Vision, r.Vision)
	setIf(&app.Hearing, r.Hearing)
	setIf(&app.Remarks, r.Remarks)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
