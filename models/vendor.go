// models/vendor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Vendor struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Website        string             `bson:"website,omitempty" json:"website,omitempty"`
	SupportEmail   string             `bson:"supportEmail,omitempty" json:"supportEmail,omitempty"`
	SupportPhone   string             `bson:"supportPhone,omitempty" json:"supportPhone,omitempty"`
	AccountManager string             `bson:"accountManager,omitempty" json:"accountManager,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
