package model

import (
	"net/mail"
	"strings"
	"time"

	"intake-review/internal/domain"

	"github.com/google/uuid"
)

// Role is an administrator privilege tier.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleSuperAdmin }

// ParseRole accepts the canonical names case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", domain.ErrInvalidArgument
	}
	return r, nil
}

// UserProfile is the administrator record that carries privilege.
// UserID references the external identity; it is empty for the bootstrap account.
type UserProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUserProfile(userID, email, name string, role Role) (*UserProfile, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidArgument
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &UserProfile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *UserProfile) IsZero() bool { return p == nil || p.ID == "" }

// IsDefault reports whether this is the bootstrap account (no external identity).
func (p *UserProfile) IsDefault() bool { return p != nil && p.UserID == "" }

// DisplayName falls back to the email when no name was recorded.
func (p *UserProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// ProfilePatch is a partial update; nil fields are left unchanged.
type ProfilePatch struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Email == nil && p.Name == nil && p.Role == nil && p.IsActive == nil
}

// Validate checks the fields that are present.
func (p ProfilePatch) Validate() error {
	verr := &domain.ValidationError{}
	if p.Email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*p.Email)); err != nil {
			verr.Add("email", "must be a valid email address")
		}
	}
	if p.Name != nil && len(strings.TrimSpace(*p.Name)) < 2 {
		verr.Add("name", "must be at least 2 characters")
	}
	if p.Role != nil && !p.Role.Valid() {
		verr.Add("role", "must be ADMIN or SUPER_ADMIN")
	}
	return verr.OrNil()
}

// Apply copies present fields onto the profile and stamps UpdatedAt.
func (p ProfilePatch) Apply(u *UserProfile, now time.Time) {
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	u.UpdatedAt = now
}
