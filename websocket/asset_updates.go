package websocket

import (
	"encoding/json"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Gerritbandison/Trackr-sub004/models"
)

// Update represents a real-time update pushed to dashboard clients
type Update struct {
	Type       string      `json:"type"` // ASSET_CREATED, ASSET_STATE_CHANGE, LICENSE_UPDATED, AUDIT_ENTRY
	ResourceID string      `json:"resourceId,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	UserID     string      `json:"userId,omitempty"`
	UserName   string      `json:"userName,omitempty"`
}

func broadcastUpdate(update Update) {
	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Failed to marshal update: %v", err)
		return
	}
	Broadcast(data)
}

// SendAssetCreated broadcasts new asset creation
func SendAssetCreated(asset interface{}, userID, userName string) {
	broadcastUpdate(Update{
		Type:      "ASSET_CREATED",
		Data:      asset,
		Timestamp: time.Now(),
		UserID:    userID,
		UserName:  userName,
	})
}

// SendAssetStateChange broadcasts lifecycle transitions
func SendAssetStateChange(assetID primitive.ObjectID, oldState, newState models.AssetState, userID, userName string) {
	broadcastUpdate(Update{
		Type:       "ASSET_STATE_CHANGE",
		ResourceID: assetID.Hex(),
		Data: map[string]interface{}{
			"oldState": oldState,
			"newState": newState,
		},
		Timestamp: time.Now(),
		UserID:    userID,
		UserName:  userName,
	})
}

// SendLicenseUpdated broadcasts license writes with their recomputed
// derived fields
func SendLicenseUpdated(licenseID primitive.ObjectID, license interface{}, userID, userName string) {
	broadcastUpdate(Update{
		Type:       "LICENSE_UPDATED",
		ResourceID: licenseID.Hex(),
		Data:       license,
		Timestamp:  time.Now(),
		UserID:     userID,
		UserName:   userName,
	})
}

// SendAudit streams a new audit entry to connected clients
func SendAudit(entry *models.AuditLog) {
	broadcastUpdate(Update{
		Type:       "AUDIT_ENTRY",
		ResourceID: entry.ResourceID.Hex(),
		Data:       entry,
		Timestamp:  entry.CreatedAt,
		UserID:     entry.ActorID.Hex(),
		UserName:   entry.ActorName,
	})
}
