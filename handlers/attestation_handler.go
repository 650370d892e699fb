// handlers/attestation_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/utils"
)

var attestationTypes = map[string]bool{
	"license_compliance": true,
	"data_wipe":          true,
	"inventory":          true,
}

func ListAttestations(w http.ResponseWriter, r *http.Request) {
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
	if attType := r.URL.Query().Get("type"); attType != "" && attType != "all" {
		filter["type"] = attType
	}

	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	cursor, err := attestationCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("attestations Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var attestations []models.Attestation
	if err = cursor.All(ctx, &attestations); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode attestations")
		return
	}
	if attestations == nil {
		attestations = []models.Attestation{}
	}

	utils.RespondWithJSON(w, http.StatusOK, attestations)
}

type AttestationRequest struct {
	Title     string              `json:"title"`
	Type      string              `json:"type"`
	LicenseID *primitive.ObjectID `json:"licenseId,omitempty"`
	AssetID   *primitive.ObjectID `json:"assetId,omitempty"`
	Comments  string              `json:"comments,omitempty"`
}

// CreateAttestation submits a compliance sign-off for review. Any
// authenticated role may submit; review is restricted to managers.
func CreateAttestation(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req AttestationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !attestationTypes[req.Type] {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown attestation type")
		return
	}

	now := time.Now().UTC()
	attestation := models.Attestation{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Type:        req.Type,
		Status:      "pending",
		SubmittedBy: act.ID,
		SubmittedAt: now,
		LicenseID:   req.LicenseID,
		AssetID:     req.AssetID,
		Comments:    req.Comments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := attestationCollection.InsertOne(ctx, attestation); err != nil {
		log.Printf("attestation insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create attestation")
		return
	}

	RecordAudit(ctx, act, "create_attestation", "attestation", attestation.ID, nil, bson.M{
		"title": attestation.Title,
		"type":  attestation.Type,
	})

	utils.RespondWithJSON(w, http.StatusCreated, attestation)
}

type ReviewRequest struct {
	Decision string `json:"decision"` // approved or rejected
	Comments string `json:"comments,omitempty"`
}

// ReviewAttestation records an approve/reject decision. Reviewers
// cannot review their own submissions.
func ReviewAttestation(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to review")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid attestation id")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Decision != "approved" && req.Decision != "rejected" {
		utils.RespondWithError(w, http.StatusBadRequest, "decision must be approved or rejected")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var attestation models.Attestation
	if err := attestationCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&attestation); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "attestation not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}

	if attestation.Status != "pending" {
		utils.RespondWithError(w, http.StatusConflict, "attestation already reviewed")
		return
	}
	if attestation.SubmittedBy == act.ID {
		utils.RespondWithError(w, http.StatusForbidden, "cannot review your own attestation")
		return
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":     req.Decision,
		"reviewerId": act.ID,
		"reviewedAt": now,
		"updatedAt":  now,
	}
	if req.Comments != "" {
		set["comments"] = req.Comments
	}

	if _, err := attestationCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		log.Printf("attestation review error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to record review")
		return
	}

	RecordAudit(ctx, act, "review_attestation", "attestation", id,
		bson.M{"status": attestation.Status},
		bson.M{"status": req.Decision})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "attestation " + req.Decision})
}
