// handlers/collections.go
package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Gerritbandison/Trackr-sub004/config"
	"github.com/Gerritbandison/Trackr-sub004/database"
)

var (
	userCollection        *mongo.Collection
	departmentCollection  *mongo.Collection
	vendorCollection      *mongo.Collection
	contractCollection    *mongo.Collection
	assetCollection       *mongo.Collection
	licenseCollection     *mongo.Collection
	loanerCollection      *mongo.Collection
	attestationCollection *mongo.Collection
	auditLogCollection    *mongo.Collection
)

func InitCollections() {
	db := database.Client.Database(config.DatabaseName)
	userCollection = db.Collection("users")
	departmentCollection = db.Collection("departments")
	vendorCollection = db.Collection("vendors")
	contractCollection = db.Collection("contracts")
	assetCollection = db.Collection("assets")
	licenseCollection = db.Collection("licenses")
	loanerCollection = db.Collection("loaners")
	attestationCollection = db.Collection("attestations")
	auditLogCollection = db.Collection("auditlogs")
}

// actor is the authenticated principal attached by AuthMiddleware.
type actor struct {
	ID   primitive.ObjectID
	Name string
	Role string
}

func requestActor(r *http.Request) (*actor, bool) {
	userIDStr, ok := r.Context().Value("userID").(string)
	if !ok || userIDStr == "" {
		return nil, false
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return nil, false
	}
	name, _ := r.Context().Value("userName").(string)
	role, _ := r.Context().Value("userRole").(string)
	return &actor{ID: userID, Name: name, Role: role}, true
}

// canManage: full CRUD over inventory records
func canManage(role string) bool {
	return role == "admin" || role == "manager"
}

// canOperate: day-to-day lifecycle operations (transitions, loaners)
func canOperate(role string) bool {
	return canManage(role) || role == "technician"
}
