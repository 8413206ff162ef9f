//go:build !integration

package web

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-review/internal/config"
	"intake-review/internal/domain/model"
	"intake-review/internal/usecase"
)

type appPage struct {
	Data  []usecase.ApplicationView `json:"data"`
	Total int                       `json:"total"`
}

type codePage struct {
	Data  []usecase.CodeView `json:"data"`
	Total int                `json:"total"`
}

// TestReviewFlow walks a referral from code creation to review over HTTP.
func TestReviewFlow(t *testing.T) {
	ts := newTestServer(t, config.RateLimitConfig{})
	root := ts.login(testDefaultEmail, testDefaultPassword)

	// super-admin creates two admins
	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		rr := ts.do(http.MethodPost, "/admin/api/profiles",
			`{"email":"`+email+`","password":"password-123","name":"`+email[:3]+`","role":"ADMIN"}`, root)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
	rr := ts.do(http.MethodPost, "/admin/api/profiles", `{"email":"alice@example.com","password":"password-123","role":"ADMIN"}`, root)
	assert.Equal(t, http.StatusConflict, rr.Code)

	alice := ts.login("alice@example.com", "password-123")
	bob := ts.login("bob@example.com", "password-123")

	t.Run("admins cannot manage profiles", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/admin/api/profiles", "", alice).Code)
		assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPost, "/admin/api/profiles",
			`{"email":"eve@example.com","password":"password-123"}`, alice).Code)
	})

	// alice issues XYZ99
	rr = ts.do(http.MethodPost, "/admin/api/reference-codes", `{"code":"xyz99"}`, alice)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	code := decode[model.ReferenceCode](t, rr)
	assert.Equal(t, "XYZ99", code.Code)

	t.Run("admins cannot issue platform codes", func(t *testing.T) {
		rr := ts.do(http.MethodPost, "/admin/api/reference-codes", `{"platform":true}`, alice)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("public validation", func(t *testing.T) {
		assert.Equal(t, map[string]bool{"valid": true}, decode[map[string]bool](t, ts.do(http.MethodGet, "/api/v1/reference-codes/XYZ99/validate", "", nil)))
		assert.Equal(t, map[string]bool{"valid": false}, decode[map[string]bool](t, ts.do(http.MethodGet, "/api/v1/reference-codes/NOPE1/validate", "", nil)))
	})

	rr = ts.do(http.MethodPost, "/api/v1/applications", submission("XYZ99"), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	appID := decode[submitResponse](t, rr).ID
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/v1/applications", submission(""), nil).Code)

	t.Run("visibility", func(t *testing.T) {
		page := decode[appPage](t, ts.do(http.MethodGet, "/admin/api/applications", "", alice))
		require.Equal(t, 1, page.Total)
		assert.Equal(t, appID, page.Data[0].ID)
		assert.Equal(t, "ali", page.Data[0].ReferredBy)

		assert.Equal(t, 0, decode[appPage](t, ts.do(http.MethodGet, "/admin/api/applications", "", bob)).Total)
		assert.Equal(t, 2, decode[appPage](t, ts.do(http.MethodGet, "/admin/api/applications", "", root)).Total)

		assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/admin/api/applications/"+appID, "", bob).Code)
	})

	t.Run("status filter", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/admin/api/applications?status=bogus", "", alice).Code)
		assert.Equal(t, 0, decode[appPage](t, ts.do(http.MethodGet, "/admin/api/applications?status=approved", "", alice)).Total)
	})

	t.Run("review", func(t *testing.T) {
		rr := ts.do(http.MethodGet, "/admin/api/applications/"+appID, "", alice)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, decode[usecase.ApplicationView](t, rr).HasView)

		for i := 0; i < 2; i++ {
			rr = ts.do(http.MethodPut, "/admin/api/applications/"+appID+"/status", `{"status":"APPROVED"}`, alice)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Equal(t, model.StatusApproved, decode[model.Application](t, rr).Status)
		}
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPut, "/admin/api/applications/"+appID+"/status", `{"status":"MAYBE"}`, alice).Code)
		assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPut, "/admin/api/applications/"+appID+"/status", `{"status":"REJECTED"}`, bob).Code)

		rr = ts.do(http.MethodPost, "/admin/api/applications/"+appID+"/unread", "", alice)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, decode[model.Application](t, rr).HasView)

		rr = ts.do(http.MethodPost, "/admin/api/applications/"+appID+"/read", "", alice)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, decode[model.Application](t, rr).HasView)

		assert.Equal(t, 1, decode[appPage](t, ts.do(http.MethodGet, "/admin/api/applications?status=APPROVED", "", alice)).Total)
	})

	t.Run("reference code ownership", func(t *testing.T) {
		page := decode[codePage](t, ts.do(http.MethodGet, "/admin/api/reference-codes", "", alice))
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "ali", page.Data[0].CreatorName)
		assert.Equal(t, 0, decode[codePage](t, ts.do(http.MethodGet, "/admin/api/reference-codes", "", bob)).Total)

		assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPut, "/admin/api/reference-codes/"+code.ID, `{"code":"BOB1"}`, bob).Code)
		assert.Equal(t, http.StatusForbidden, ts.do(http.MethodDelete, "/admin/api/reference-codes/"+code.ID, "", bob).Code)
	})

	t.Run("deactivated admin loses access on the next request", func(t *testing.T) {
		profiles := decode[struct {
			Data []model.UserProfile `json:"data"`
		}](t, ts.do(http.MethodGet, "/admin/api/profiles", "", root))
		var aliceID string
		for _, p := range profiles.Data {
			if p.Email == "alice@example.com" {
				aliceID = p.ID
			}
		}
		require.NotEmpty(t, aliceID)

		require.Equal(t, http.StatusOK, ts.do(http.MethodPut, "/admin/api/profiles/"+aliceID+"/active", `{"active":false}`, root).Code)
		assert.Equal(t, 0, decode[appPage](t, ts.do(http.MethodGet, "/admin/api/applications", "", alice)).Total)
		assert.Equal(t, http.StatusForbidden, ts.do(http.MethodDelete, "/admin/api/applications/"+appID, "", alice).Code)

		me := decode[usecase.Privileges](t, ts.do(http.MethodGet, "/admin/api/me", "", alice))
		assert.False(t, me.IsAdmin)
	})

	t.Run("super-admin deletes", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/admin/api/applications/"+appID, "", root).Code)
		assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/admin/api/applications/"+appID, "", root).Code)
	})
}
