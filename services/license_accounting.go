// services/license_accounting.go
//
// Derived-field accounting for licenses. Runs synchronously before
// every insert/update of a license document; callers never set
// availableSeats, status (beyond cancelling) or complianceStatus
// themselves.
package services

import (
	"math"
	"time"

	"github.com/Gerritbandison/Trackr-sub004/models"
)

const (
	// Licenses expiring within this many days are flagged "expiring".
	expiringWindowDays = 30
	// Seat utilization at or above this ratio is flagged "at-risk".
	atRiskUtilization = 0.9
)

// RecomputeDerivedFields returns the license with its three derived
// fields made consistent with totalSeats, usedSeats, type and
// expirationDate as of now. It never fails: negative availableSeats
// and over-100% utilization are meaningful states, not errors.
// Recomputing an already-derived record is a no-op.
func RecomputeDerivedFields(license models.License, now time.Time) models.License {
	license.AvailableSeats = license.TotalSeats - license.UsedSeats

	// Date-driven status. Perpetual licenses never expire, and a
	// cancelled status is sticky: it is never overwritten here even if
	// the expiration date moves forward.
	if license.Type != models.LicensePerpetual &&
		license.Status != models.LicenseCancelled &&
		license.ExpirationDate != nil {
		switch days := daysUntil(*license.ExpirationDate, now); {
		case days < 0:
			license.Status = models.LicenseExpired
		case days <= expiringWindowDays:
			license.Status = models.LicenseExpiring
		default:
			license.Status = models.LicenseActive
		}
	}

	// Over-commitment is checked before the utilization ratio, so a
	// zero-seat license never divides. Zero used against zero total
	// classifies compliant.
	switch {
	case license.UsedSeats > license.TotalSeats:
		license.ComplianceStatus = models.NonCompliant
	case license.TotalSeats > 0 &&
		float64(license.UsedSeats)/float64(license.TotalSeats) >= atRiskUtilization:
		license.ComplianceStatus = models.AtRisk
	default:
		license.ComplianceStatus = models.Compliant
	}

	return license
}

func daysUntil(expiration, now time.Time) int {
	return int(math.Ceil(expiration.Sub(now).Hours() / 24))
}
