package model

import (
	"strings"
	"time"

	"intake-review/internal/domain"

	"github.com/google/uuid"
)

// ApplicationStatus is the review state. Any state is reachable from any other.
type ApplicationStatus int

const (
	StatusSubmitted ApplicationStatus = iota
	StatusApproved
	StatusRejected
)

var statusNames = [...]string{"SUBMITTED", "APPROVED", "REJECTED"}

func (s ApplicationStatus) Valid() bool { return s >= StatusSubmitted && s <= StatusRejected }

func (s ApplicationStatus) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}
	return statusNames[s]
}

func ParseApplicationStatus(v string) (ApplicationStatus, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for i, n := range statusNames {
		if n == v {
			return ApplicationStatus(i), nil
		}
	}
	return 0, domain.ErrInvalidArgument
}

func (s ApplicationStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ApplicationStatus) UnmarshalText(b []byte) error {
	v, err := ParseApplicationStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Gender of the applicant.
type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unknown"
	}
}

func ParseGender(v string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "male":
		return GenderMale, nil
	case "female":
		return GenderFemale, nil
	}
	return 0, domain.ErrInvalidArgument
}

func (g Gender) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Gender) UnmarshalText(b []byte) error {
	v, err := ParseGender(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Application is a submitted job application.
//
// RefCodeID holds the code VALUE the applicant typed, not a ReferenceCode ID. The
// attribution survives later edits or deletion of the code, and a stale value can only
// be resolved by looking up the current code value.
type Application struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Age         int               `json:"age"`
	Nationality string            `json:"nationality"`
	Gender      Gender            `json:"gender"`
	Requirement bool              `json:"requirement"`
	RefCodeID   string            `json:"ref_code_id"`
	Status      ApplicationStatus `json:"status"`
	HasView     bool              `json:"has_view"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ApplicationInput is the public submission payload after decoding.
type ApplicationInput struct {
	Name        string
	Email       string
	Phone       string
	Age         int
	Nationality string
	Gender      Gender
	Requirement bool
	RefCode     string
}

// NewApplication builds a SUBMITTED, unread record from already validated input.
func NewApplication(in ApplicationInput) *Application {
	now := time.Now()
	return &Application{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Age:         in.Age,
		Nationality: strings.TrimSpace(in.Nationality),
		Gender:      in.Gender,
		Requirement: in.Requirement,
		RefCodeID:   strings.ToUpper(strings.TrimSpace(in.RefCode)),
		Status:      StatusSubmitted,
		HasView:     false,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplicationFilter narrows list queries.
type ApplicationFilter struct {
	Status *ApplicationStatus
}

func (f ApplicationFilter) Match(a *Application) bool {
	return f.Status == nil || a.Status == *f.Status
}

// ApplicationPatch is a partial update of the reviewer-controlled fields.
type ApplicationPatch struct {
	Status  *ApplicationStatus
	HasView *bool
}

func (p ApplicationPatch) Apply(a *Application, now time.Time) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.HasView != nil {
		a.HasView = *p.HasView
	}
	a.UpdatedAt = now
}

// ApplicationStats is an aggregate snapshot used for gauges.
type ApplicationStats struct {
	ByStatus map[ApplicationStatus]int
	Unread   int
	Total    int
}
