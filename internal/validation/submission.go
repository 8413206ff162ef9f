// Package validation holds the public form rules. Input is rejected here, before any
// store is touched.
package validation

import (
	"encoding/json"
	"net/mail"
	"strings"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"

	"github.com/xeipuuv/gojsonschema"
)

const (
	MinAge            = 21
	minNameLength     = 2
	minPhoneLength    = 10
	minNationalityLen = 2
)

const submissionSchema = `{
  "type": "object",
  "required": ["name", "email", "phone", "age", "nationality", "gender", "requirement"],
  "properties": {
    "name":        {"type": "string", "minLength": 2, "maxLength": 200},
    "email":       {"type": "string", "format": "email", "maxLength": 254},
    "phone":       {"type": "string", "minLength": 10, "maxLength": 32},
    "age":         {"type": "integer", "minimum": 21, "maximum": 120},
    "nationality": {"type": "string", "minLength": 2, "maxLength": 100},
    "gender":      {"type": "string", "enum": ["male", "female"]},
    "requirement": {"type": "boolean", "enum": [true]},
    "ref_code":    {"type": "string", "maxLength": 32}
  }
}`

var schema = mustSchema(submissionSchema)

func mustSchema(s string) *gojsonschema.Schema {
	sc, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return sc
}

type submission struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Age         int    `json:"age"`
	Nationality string `json:"nationality"`
	Gender      string `json:"gender"`
	Requirement bool   `json:"requirement"`
	RefCode     string `json:"ref_code"`
}

// DecodeSubmission checks a raw JSON body against the form schema and decodes it.
// Every failing field is reported in the returned *domain.ValidationError.
func DecodeSubmission(body []byte) (model.ApplicationInput, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return model.ApplicationInput{}, (&domain.ValidationError{}).Add("body", "must be a JSON object")
	}
	if !result.Valid() {
		verr := &domain.ValidationError{}
		for _, desc := range result.Errors() {
			verr.Add(fieldOf(desc), desc.Description())
		}
		return model.ApplicationInput{}, verr
	}

	var s submission
	if err := json.Unmarshal(body, &s); err != nil {
		return model.ApplicationInput{}, (&domain.ValidationError{}).Add("body", "must be a JSON object")
	}
	gender, _ := model.ParseGender(s.Gender)
	in := model.ApplicationInput{
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.Phone,
		Age:         s.Age,
		Nationality: s.Nationality,
		Gender:      gender,
		Requirement: s.Requirement,
		RefCode:     s.RefCode,
	}
	return in, CheckApplication(in)
}

func fieldOf(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok {
			return p
		}
	}
	if f := desc.Field(); f != "" && f != "(root)" {
		return f
	}
	return "body"
}

// CheckApplication applies the form rules to already decoded input. Whitespace is
// trimmed before length checks.
func CheckApplication(in model.ApplicationInput) error {
	verr := &domain.ValidationError{}
	if len(strings.TrimSpace(in.Name)) < minNameLength {
		verr.Add("name", "must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if len(strings.TrimSpace(in.Phone)) < minPhoneLength {
		verr.Add("phone", "must be at least 10 characters")
	}
	if in.Age < MinAge {
		verr.Add("age", "must be at least 21")
	}
	if len(strings.TrimSpace(in.Nationality)) < minNationalityLen {
		verr.Add("nationality", "must be at least 2 characters")
	}
	if in.Gender != model.GenderMale && in.Gender != model.GenderFemale {
		verr.Add("gender", "must be male or female")
	}
	if !in.Requirement {
		verr.Add("requirement", "must be accepted")
	}
	if ref := strings.TrimSpace(in.RefCode); ref != "" {
		if _, err := model.NormalizeReferenceCode(ref); err != nil {
			verr.Add("ref_code", "must be letters, digits or '-'")
		}
	}
	return verr.OrNil()
}
