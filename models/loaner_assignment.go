// models/loaner_assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LoanerAssignment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssetID      primitive.ObjectID `bson:"assetId" json:"assetId"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	CheckedOutBy primitive.ObjectID `bson:"checkedOutBy" json:"checkedOutBy"`
	CheckedOutAt time.Time          `bson:"checkedOutAt" json:"checkedOutAt"`
	DueAt        *time.Time         `bson:"dueAt,omitempty" json:"dueAt,omitempty"`
	ReturnedAt   *time.Time         `bson:"returnedAt,omitempty" json:"returnedAt,omitempty"`
	Status       string             `bson:"status" json:"status"` // checked_out, returned
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
}
