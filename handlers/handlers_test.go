package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/services"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"admin", "admin"},
		{"Admin", "admin"},
		{"  MANAGER ", "manager"},
		{"technician", "technician"},
		{"viewer", "viewer"},
		{"superuser", "viewer"},
		{"", "viewer"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRole(tt.in), "input %q", tt.in)
	}
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, canManage("admin"))
	assert.True(t, canManage("manager"))
	assert.False(t, canManage("technician"))
	assert.False(t, canManage("viewer"))

	assert.True(t, canOperate("admin"))
	assert.True(t, canOperate("manager"))
	assert.True(t, canOperate("technician"))
	assert.False(t, canOperate("viewer"))
}

func TestRespondServiceErrorInvalidTransition(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, &services.InvalidTransitionError{
		From: models.StateOrdered,
		To:   models.StateInService,
	})

	require.Equal(t, 409, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalidTransition", body["reason"])
	assert.Equal(t, string(models.StateOrdered), body["from"])
	assert.Equal(t, string(models.StateInService), body["to"])
}

func TestRespondServiceErrorPrecondition(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, &services.PreconditionFailedError{
		Condition: services.CondDataWipeCertRequired,
	})

	require.Equal(t, 400, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, services.CondDataWipeCertRequired, body["reason"])
}

func TestRespondServiceErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, &services.ValidationError{
		Field:   "globalAssetId",
		Message: "does not match required format",
	})

	require.Equal(t, 400, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validationFailed", body["reason"])
	assert.Equal(t, "globalAssetId", body["field"])
}

func TestCalculateStartDate(t *testing.T) {
	now := time.Now().UTC()

	start := calculateStartDate("24h")
	assert.WithinDuration(t, now.Add(-24*time.Hour), start, 2*time.Second)

	start = calculateStartDate("7d")
	assert.WithinDuration(t, now.AddDate(0, 0, -7), start, 2*time.Second)

	assert.True(t, calculateStartDate("bogus").IsZero())
	assert.True(t, calculateStartDate("").IsZero())
}
