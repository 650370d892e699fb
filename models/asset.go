// models/asset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetState is the lifecycle state of a hardware asset. States only
// change through the lifecycle service; an asset always has exactly one.
type AssetState string

const (
	StateOrdered   AssetState = "Ordered"
	StateReceived  AssetState = "Received"
	StateInStaging AssetState = "In Staging"
	StateInService AssetState = "In Service"
	StateInRepair  AssetState = "In Repair"
	StateInLoaner  AssetState = "In Loaner"
	StateLost      AssetState = "Lost"
	StateRetired   AssetState = "Retired"
	StateDisposed  AssetState = "Disposed"
)

var assetStates = map[AssetState]bool{
	StateOrdered:   true,
	StateReceived:  true,
	StateInStaging: true,
	StateInService: true,
	StateInRepair:  true,
	StateInLoaner:  true,
	StateLost:      true,
	StateRetired:   true,
	StateDisposed:  true,
}

func (s AssetState) Valid() bool {
	return assetStates[s]
}

// AssetClasses is the fixed set of accepted hardware classes.
var AssetClasses = []string{
	"Laptop", "Desktop", "Monitor", "Phone", "Tablet", "Dock",
	"Keyboard", "Mouse", "Headset", "Webcam", "Accessory",
	"Server", "Network Device", "Other",
}

func ValidAssetClass(class string) bool {
	for _, c := range AssetClasses {
		if c == class {
			return true
		}
	}
	return false
}

// UserRef is a denormalized pointer to the user owning an asset.
type UserRef struct {
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	UPN         string             `bson:"upn,omitempty" json:"upn,omitempty"`
	DisplayName string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
}

type Purchase struct {
	UnitCost float64 `bson:"unitCost,omitempty" json:"unitCost,omitempty"`
	PO       string  `bson:"po,omitempty" json:"po,omitempty"`
	Invoice  string  `bson:"invoice,omitempty" json:"invoice,omitempty"`
}

type Warranty struct {
	Start *time.Time `bson:"start,omitempty" json:"start,omitempty"`
	End   *time.Time `bson:"end,omitempty" json:"end,omitempty"`
}

// WipeCertificate attests secure erasure before disposal.
type WipeCertificate struct {
	Reference string    `bson:"reference" json:"reference"`
	IssuedBy  string    `bson:"issuedBy" json:"issuedBy"`
	IssuedAt  time.Time `bson:"issuedAt" json:"issuedAt"`
}

type Asset struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	GlobalAssetID   string              `bson:"globalAssetId" json:"globalAssetId"` // AS-YYYY-NNNNNN, immutable
	AssetTag        string              `bson:"assetTag,omitempty" json:"assetTag,omitempty"`
	SerialNumber    string              `bson:"serialNumber,omitempty" json:"serialNumber,omitempty"`
	Class           string              `bson:"class" json:"class"`
	State           AssetState          `bson:"state" json:"state"`
	Model           string              `bson:"model,omitempty" json:"model,omitempty"`
	Manufacturer    string              `bson:"manufacturer,omitempty" json:"manufacturer,omitempty"`
	Owner           *UserRef            `bson:"owner,omitempty" json:"owner,omitempty"`
	DepartmentID    *primitive.ObjectID `bson:"departmentId,omitempty" json:"departmentId,omitempty"`
	Location        string              `bson:"location,omitempty" json:"location,omitempty"`
	Purchase        Purchase            `bson:"purchase,omitempty" json:"purchase,omitempty"`
	Warranty        Warranty            `bson:"warranty,omitempty" json:"warranty,omitempty"`
	DeviceGUIDs     []string            `bson:"deviceGuids,omitempty" json:"deviceGuids,omitempty"`
	WipeCertificate *WipeCertificate    `bson:"wipeCertificate,omitempty" json:"wipeCertificate,omitempty"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy       primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}
