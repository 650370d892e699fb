// models/audit_log.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorID       primitive.ObjectID `bson:"actorId" json:"actorId"`
	ActorName     string             `bson:"actorName,omitempty" json:"actorName,omitempty"`
	Action        string             `bson:"action" json:"action"` // e.g. "create_asset", "transition_asset", "update_license"
	ResourceType  string             `bson:"resourceType" json:"resourceType"`
	ResourceID    primitive.ObjectID `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	PreviousValue bson.M             `bson:"previousValue,omitempty" json:"previousValue,omitempty"`
	NewValue      bson.M             `bson:"newValue,omitempty" json:"newValue,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
