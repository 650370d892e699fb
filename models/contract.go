// models/contract.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Contract struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	VendorID          primitive.ObjectID `bson:"vendorId" json:"vendorId"`
	Type              string             `bson:"type" json:"type"` // purchase, support, subscription, lease
	Status            string             `bson:"status" json:"status"` // active, expired, terminated
	StartDate         *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate           *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Value             float64            `bson:"value,omitempty" json:"value,omitempty"`
	RenewalNoticeDays int                `bson:"renewalNoticeDays,omitempty" json:"renewalNoticeDays,omitempty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
