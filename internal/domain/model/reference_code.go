package model

import (
	"crypto/rand"
	"io"
	"strings"
	"time"

	"intake-review/internal/domain"

	"github.com/google/uuid"
)

const (
	referenceCodeChars     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceCodeGenLength = 6
	referenceCodeMaxLength = 32
)

// ReferenceCode is an invitation code. Code values are not unique; CreatedBy is a
// weak reference to a UserProfile ID and nil means the code was issued by the platform.
type ReferenceCode struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedBy *string   `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewReferenceCode(code string, createdBy *string) (*ReferenceCode, error) {
	norm, err := NormalizeReferenceCode(code)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &ReferenceCode{
		ID:        uuid.NewString(),
		Code:      norm,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsPlatform reports whether the code has no owning administrator.
func (c *ReferenceCode) IsPlatform() bool { return c.CreatedBy == nil || *c.CreatedBy == "" }

// OwnedBy reports whether profileID created the code.
func (c *ReferenceCode) OwnedBy(profileID string) bool {
	return !c.IsPlatform() && *c.CreatedBy == profileID
}

// NormalizeReferenceCode trims and upper-cases a code and checks its alphabet.
func NormalizeReferenceCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > referenceCodeMaxLength {
		return "", domain.ErrInvalidArgument
	}
	for _, r := range code {
		if !strings.ContainsRune(referenceCodeChars, r) && r != '-' {
			return "", domain.ErrInvalidArgument
		}
	}
	return code, nil
}

// GenerateReferenceCode returns a random 6-character A-Z0-9 code.
func GenerateReferenceCode() (string, error) {
	buf := make([]byte, referenceCodeGenLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = referenceCodeChars[int(buf[i])%len(referenceCodeChars)]
	}
	return string(buf), nil
}
