// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FirstName    string              `bson:"firstName" json:"firstName"`
	LastName     string              `bson:"lastName" json:"lastName"`
	Email        string              `bson:"email" json:"email"`
	UPN          string              `bson:"upn,omitempty" json:"upn,omitempty"`
	JobTitle     string              `bson:"jobTitle,omitempty" json:"jobTitle,omitempty"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string              `bson:"passwordHash" json:"-"`
	Role         string              `bson:"role" json:"role"` // admin, manager, technician, viewer
	DepartmentID *primitive.ObjectID `bson:"departmentId,omitempty" json:"departmentId,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}
