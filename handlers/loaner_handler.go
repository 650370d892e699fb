// handlers/loaner_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/services"
	"github.com/Gerritbandison/Trackr-sub004/utils"
	"github.com/Gerritbandison/Trackr-sub004/websocket"
)

func ListLoaners(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" && status != "all" {
		filter["status"] = status
	}
	if overdue := r.URL.Query().Get("overdue"); overdue == "true" {
		filter["status"] = "checked_out"
		filter["dueAt"] = bson.M{"$lt": time.Now().UTC()}
	}

	opts := options.Find().SetSort(bson.D{{Key: "checkedOutAt", Value: -1}})
	cursor, err := loanerCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("loaners Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var assignments []models.LoanerAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode loaner assignments")
		return
	}
	if assignments == nil {
		assignments = []models.LoanerAssignment{}
	}

	utils.RespondWithJSON(w, http.StatusOK, assignments)
}

type CheckOutRequest struct {
	AssetID primitive.ObjectID `json:"assetId"`
	UserID  primitive.ObjectID `json:"userId"`
	DueAt   *time.Time         `json:"dueAt,omitempty"`
	Notes   string             `json:"notes,omitempty"`
}

// CheckOutAsset moves an in-service asset into the loaner pool and
// records who holds it. The state machine rejects assets that are not
// currently In Service.
func CheckOutAsset(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canOperate(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AssetID.IsZero() || req.UserID.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "assetId and userId are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var asset models.Asset
	if err := assetCollection.FindOne(ctx, bson.M{"_id": req.AssetID}).Decode(&asset); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "asset not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}

	if count, err := userCollection.CountDocuments(ctx, bson.M{"_id": req.UserID}); err != nil || count == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "user not found")
		return
	}

	updated, err := services.RequestTransition(asset, models.StateInLoaner)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	assignment := models.LoanerAssignment{
		ID:           primitive.NewObjectID(),
		AssetID:      asset.ID,
		UserID:       req.UserID,
		CheckedOutBy: act.ID,
		CheckedOutAt: time.Now().UTC(),
		DueAt:        req.DueAt,
		Status:       "checked_out",
		Notes:        req.Notes,
	}

	if _, err := loanerCollection.InsertOne(ctx, assignment); err != nil {
		log.Printf("loaner insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to record check-out")
		return
	}

	_, err = assetCollection.UpdateOne(ctx,
		bson.M{"_id": asset.ID},
		bson.M{"$set": bson.M{"state": updated.State, "updatedAt": time.Now().UTC()}})
	if err != nil {
		log.Printf("loaner state update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update asset state")
		return
	}

	RecordAudit(ctx, act, "check_out_asset", "asset", asset.ID,
		bson.M{"state": asset.State},
		bson.M{"state": updated.State, "loanedTo": req.UserID})
	websocket.SendAssetStateChange(asset.ID, asset.State, updated.State, act.ID.Hex(), act.Name)

	utils.RespondWithJSON(w, http.StatusCreated, assignment)
}

type CheckInRequest struct {
	AssetID primitive.ObjectID `json:"assetId"`
	Notes   string             `json:"notes,omitempty"`
}

// CheckInAsset closes the open assignment and returns the asset to
// In Service.
func CheckInAsset(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canOperate(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AssetID.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "assetId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var assignment models.LoanerAssignment
	err := loanerCollection.FindOne(ctx, bson.M{
		"assetId": req.AssetID,
		"status":  "checked_out",
	}).Decode(&assignment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "no open loaner assignment for asset")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}

	var asset models.Asset
	if err := assetCollection.FindOne(ctx, bson.M{"_id": req.AssetID}).Decode(&asset); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "asset not found")
		return
	}

	updated, err := services.RequestTransition(asset, models.StateInService)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	set := bson.M{"status": "returned", "returnedAt": now}
	if req.Notes != "" {
		set["notes"] = req.Notes
	}
	if _, err := loanerCollection.UpdateOne(ctx, bson.M{"_id": assignment.ID}, bson.M{"$set": set}); err != nil {
		log.Printf("loaner close error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to close assignment")
		return
	}

	_, err = assetCollection.UpdateOne(ctx,
		bson.M{"_id": asset.ID},
		bson.M{"$set": bson.M{"state": updated.State, "updatedAt": now}})
	if err != nil {
		log.Printf("check-in state update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update asset state")
		return
	}

	RecordAudit(ctx, act, "check_in_asset", "asset", asset.ID,
		bson.M{"state": asset.State},
		bson.M{"state": updated.State})
	websocket.SendAssetStateChange(asset.ID, asset.State, updated.State, act.ID.Hex(), act.Name)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "asset checked in"})
}
