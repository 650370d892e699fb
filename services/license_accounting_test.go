package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gerritbandison/Trackr-sub004/models"
)

var accountingNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

func TestRecomputeSeatArithmetic(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		used       int
		wantAvail  int
		wantStatus models.ComplianceStatus
	}{
		{"plenty of headroom", 100, 40, 60, models.Compliant},
		{"at-risk at exactly 90 percent", 10, 9, 1, models.AtRisk},
		{"at-risk above 90 percent", 100, 95, 5, models.AtRisk},
		{"compliant just below 90 percent", 100, 89, 11, models.Compliant},
		{"fully allocated", 10, 10, 0, models.AtRisk},
		{"over-allocated goes negative", 10, 11, -1, models.NonCompliant},
		{"heavy over-allocation", 5, 20, -15, models.NonCompliant},
		{"zero seats unused", 0, 0, 0, models.Compliant},
		{"zero seats with consumption", 0, 3, -3, models.NonCompliant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputeDerivedFields(models.License{
				Name:       "Acrobat Pro",
				Vendor:     "Adobe",
				Type:       models.LicensePerpetual,
				TotalSeats: tt.total,
				UsedSeats:  tt.used,
			}, accountingNow)

			assert.Equal(t, tt.wantAvail, got.AvailableSeats)
			assert.Equal(t, tt.total-tt.used, got.AvailableSeats)
			assert.Equal(t, tt.wantStatus, got.ComplianceStatus)
		})
	}
}

func TestRecomputeStatusFromExpiration(t *testing.T) {
	tests := []struct {
		name       string
		expiration *time.Time
		wantStatus models.LicenseStatus
	}{
		{"expired two days ago", datePtr(accountingNow.AddDate(0, 0, -2)), models.LicenseExpired},
		{"expiring in ten days", datePtr(accountingNow.AddDate(0, 0, 10)), models.LicenseExpiring},
		{"expiring today", datePtr(accountingNow), models.LicenseExpiring},
		{"expiring at window edge", datePtr(accountingNow.AddDate(0, 0, 30)), models.LicenseExpiring},
		{"active past the window", datePtr(accountingNow.AddDate(0, 0, 31)), models.LicenseActive},
		{"active next year", datePtr(accountingNow.AddDate(1, 0, 0)), models.LicenseActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputeDerivedFields(models.License{
				Name:           "Jira Cloud",
				Vendor:         "Atlassian",
				Type:           models.LicenseSubscription,
				TotalSeats:     50,
				UsedSeats:      10,
				Status:         models.LicenseActive,
				ExpirationDate: tt.expiration,
			}, accountingNow)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestRecomputeStatusSkipsPerpetual(t *testing.T) {
	got := RecomputeDerivedFields(models.License{
		Type:           models.LicensePerpetual,
		TotalSeats:     10,
		UsedSeats:      2,
		Status:         models.LicenseActive,
		ExpirationDate: datePtr(accountingNow.AddDate(0, 0, -90)),
	}, accountingNow)
	assert.Equal(t, models.LicenseActive, got.Status)
}

func TestRecomputeStatusSkipsWithoutExpiration(t *testing.T) {
	got := RecomputeDerivedFields(models.License{
		Type:       models.LicenseSubscription,
		TotalSeats: 10,
		UsedSeats:  2,
		Status:     models.LicenseActive,
	}, accountingNow)
	assert.Equal(t, models.LicenseActive, got.Status)
}

func TestRecomputeCancelledIsSticky(t *testing.T) {
	// A cancelled license stays cancelled even when the expiration date
	// is pushed into the future; reactivation takes an explicit write.
	got := RecomputeDerivedFields(models.License{
		Type:           models.LicenseSubscription,
		TotalSeats:     20,
		UsedSeats:      19,
		Status:         models.LicenseCancelled,
		ExpirationDate: datePtr(accountingNow.AddDate(1, 0, 0)),
	}, accountingNow)

	assert.Equal(t, models.LicenseCancelled, got.Status)
	// Seat and compliance accounting still run.
	assert.Equal(t, 1, got.AvailableSeats)
	assert.Equal(t, models.AtRisk, got.ComplianceStatus)
}

func TestRecomputeOverwritesTamperedDerivedFields(t *testing.T) {
	got := RecomputeDerivedFields(models.License{
		Type:             models.LicensePerpetual,
		TotalSeats:       10,
		UsedSeats:        4,
		AvailableSeats:   999,
		ComplianceStatus: models.NonCompliant,
	}, accountingNow)

	assert.Equal(t, 6, got.AvailableSeats)
	assert.Equal(t, models.Compliant, got.ComplianceStatus)
}

func TestRecomputeIdempotent(t *testing.T) {
	lic := models.License{
		Name:           "M365 E5",
		Vendor:         "Microsoft",
		Type:           models.LicenseSubscription,
		TotalSeats:     250,
		UsedSeats:      240,
		Status:         models.LicenseActive,
		ExpirationDate: datePtr(accountingNow.AddDate(0, 0, 14)),
	}

	once := RecomputeDerivedFields(lic, accountingNow)
	twice := RecomputeDerivedFields(once, accountingNow)
	require.Equal(t, once, twice)

	assert.Equal(t, 10, once.AvailableSeats)
	assert.Equal(t, models.LicenseExpiring, once.Status)
	assert.Equal(t, models.AtRisk, once.ComplianceStatus)
}
