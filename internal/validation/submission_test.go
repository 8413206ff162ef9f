//go:build !integration

package validation

import (
	"errors"
	"testing"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
  "name": "Jane Roe",
  "email": "jane@example.com",
  "phone": "+1 555 010 9999",
  "age": 30,
  "nationality": "Canadian",
  "gender": "female",
  "requirement": true,
  "ref_code": " xyz99 "
}`

func fields(t *testing.T, err error) []string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected *domain.ValidationError, got %v", err)
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestDecodeSubmission(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in, err := DecodeSubmission([]byte(validBody))
		require.NoError(t, err)
		assert.Equal(t, model.GenderFemale, in.Gender)
		assert.Equal(t, 30, in.Age)
		assert.True(t, in.Requirement)
		assert.Equal(t, " xyz99 ", in.RefCode)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodeSubmission([]byte("nope"))
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("missing fields are named", func(t *testing.T) {
		_, err := DecodeSubmission([]byte(`{"name":"Jo"}`))
		got := fields(t, err)
		assert.Contains(t, got, "email")
		assert.Contains(t, got, "requirement")
	})

	t.Run("rule violations", func(t *testing.T) {
		body := `{"name":"J","email":"bad","phone":"123","age":20,"nationality":"X","gender":"other","requirement":false}`
		got := fields(t, mustErr(DecodeSubmission([]byte(body))))
		for _, f := range []string{"name", "email", "phone", "age", "nationality", "gender", "requirement"} {
			assert.Contains(t, got, f)
		}
	})
}

func mustErr(_ model.ApplicationInput, err error) error { return err }

func TestCheckApplication_TrimsBeforeLength(t *testing.T) {
	in := model.ApplicationInput{
		Name:        "  A  ",
		Email:       "a@b.co",
		Phone:       "0123456789",
		Age:         21,
		Nationality: "NL",
		Gender:      model.GenderMale,
		Requirement: true,
	}
	got := fields(t, CheckApplication(in))
	assert.Equal(t, []string{"name"}, got)

	in.Name = "Al"
	assert.NoError(t, CheckApplication(in))

	in.RefCode = "bad code!"
	assert.Equal(t, []string{"ref_code"}, fields(t, CheckApplication(in)))
}
