// models/license.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LicenseType string

const (
	LicensePerpetual    LicenseType = "perpetual"
	LicenseSubscription LicenseType = "subscription"
	LicenseTrial        LicenseType = "trial"
)

type LicenseStatus string

const (
	LicenseActive    LicenseStatus = "active"
	LicenseExpiring  LicenseStatus = "expiring"
	LicenseExpired   LicenseStatus = "expired"
	LicenseCancelled LicenseStatus = "cancelled"
)

type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "compliant"
	AtRisk       ComplianceStatus = "at-risk"
	NonCompliant ComplianceStatus = "non-compliant"
)

// License tracks a purchased software entitlement. AvailableSeats,
// Status and ComplianceStatus are derived on every write by the
// accounting service and must never be set by callers.
type License struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name             string              `bson:"name" json:"name"`
	Vendor           string              `bson:"vendor" json:"vendor"`
	VendorID         *primitive.ObjectID `bson:"vendorId,omitempty" json:"vendorId,omitempty"`
	Type             LicenseType         `bson:"type" json:"type"`
	TotalSeats       int                 `bson:"totalSeats" json:"totalSeats"`
	UsedSeats        int                 `bson:"usedSeats" json:"usedSeats"`
	AvailableSeats   int                 `bson:"availableSeats" json:"availableSeats"` // derived
	ExpirationDate   *time.Time          `bson:"expirationDate,omitempty" json:"expirationDate,omitempty"`
	Status           LicenseStatus       `bson:"status" json:"status"`                     // partially derived
	ComplianceStatus ComplianceStatus    `bson:"complianceStatus" json:"complianceStatus"` // derived
	DepartmentID     *primitive.ObjectID `bson:"departmentId,omitempty" json:"departmentId,omitempty"`
	ContractID       *primitive.ObjectID `bson:"contractId,omitempty" json:"contractId,omitempty"`
	Notes            string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy        primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}
