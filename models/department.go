// models/department.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Department struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	CostCenter string              `bson:"costCenter,omitempty" json:"costCenter,omitempty"`
	Location   string              `bson:"location,omitempty" json:"location,omitempty"`
	ManagerID  *primitive.ObjectID `bson:"managerId,omitempty" json:"managerId,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}
