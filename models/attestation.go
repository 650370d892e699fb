// models/attestation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Attestation struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Type        string              `bson:"type" json:"type"` // license_compliance, data_wipe, inventory
	Status      string              `bson:"status" json:"status"` // pending, approved, rejected
	SubmittedBy primitive.ObjectID  `bson:"submittedBy" json:"submittedBy"`
	SubmittedAt time.Time           `bson:"submittedAt" json:"submittedAt"`
	ReviewerID  *primitive.ObjectID `bson:"reviewerId,omitempty" json:"reviewerId,omitempty"`
	ReviewedAt  *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	LicenseID   *primitive.ObjectID `bson:"licenseId,omitempty" json:"licenseId,omitempty"`
	AssetID     *primitive.ObjectID `bson:"assetId,omitempty" json:"assetId,omitempty"`
	Comments    string              `bson:"comments,omitempty" json:"comments,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}
