package model

import "time"

// Identity is what the identity provider knows about a person. Credentials never leave
// the provider; profiles store only UID.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// IdentityRecord is the provider's stored form, including the password hash.
type IdentityRecord struct {
	Identity
	PasswordHash []byte
	UpdatedAt    time.Time
}

// Caller is the per-request session context. Profile is nil when the identity has
// no administrator profile; such a caller has no privileges.
type Caller struct {
	Identity  Identity
	Profile   *UserProfile
	SessionID string
}

// ProfileID returns the caller's profile ID or "".
func (c *Caller) ProfileID() string {
	if c == nil || c.Profile == nil {
		return ""
	}
	return c.Profile.ID
}
