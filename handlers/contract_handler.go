// handlers/contract_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/utils"
)

var contractTypes = map[string]bool{
	"purchase":     true,
	"support":      true,
	"subscription": true,
	"lease":        true,
}

func ListContracts(w http.ResponseWriter, r *http.Request) {
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
	if vendorID := r.URL.Query().Get("vendorId"); vendorID != "" {
		if objID, err := primitive.ObjectIDFromHex(vendorID); err == nil {
			filter["vendorId"] = objID
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}})
	cursor, err := contractCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("contracts Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var contracts []models.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode contracts")
		return
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}

	utils.RespondWithJSON(w, http.StatusOK, contracts)
}

type ContractRequest struct {
	Name              string             `json:"name"`
	VendorID          primitive.ObjectID `json:"vendorId"`
	Type              string             `json:"type"`
	StartDate         *time.Time         `json:"startDate,omitempty"`
	EndDate           *time.Time         `json:"endDate,omitempty"`
	Value             float64            `json:"value,omitempty"`
	RenewalNoticeDays int                `json:"renewalNoticeDays,omitempty"`
	Notes             string             `json:"notes,omitempty"`
}

func CreateContract(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !contractTypes[req.Type] {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown contract type")
		return
	}
	if req.VendorID.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "vendorId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := vendorCollection.CountDocuments(ctx, bson.M{"_id": req.VendorID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if count == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "vendor not found")
		return
	}

	now := time.Now().UTC()
	contract := models.Contract{
		ID:                primitive.NewObjectID(),
		Name:              req.Name,
		VendorID:          req.VendorID,
		Type:              req.Type,
		Status:            "active",
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Value:             req.Value,
		RenewalNoticeDays: req.RenewalNoticeDays,
		Notes:             req.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if contract.EndDate != nil && contract.EndDate.Before(now) {
		contract.Status = "expired"
	}

	if _, err := contractCollection.InsertOne(ctx, contract); err != nil {
		log.Printf("contract insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create contract")
		return
	}

	RecordAudit(ctx, act, "create_contract", "contract", contract.ID, nil, bson.M{
		"name":     contract.Name,
		"vendorId": contract.VendorID,
		"type":     contract.Type,
	})

	utils.RespondWithJSON(w, http.StatusCreated, contract)
}

func GetContract(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var contract models.Contract
	if err := contractCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&contract); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "contract not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, contract)
}

type UpdateContractRequest struct {
	Name              *string    `json:"name,omitempty"`
	Type              *string    `json:"type,omitempty"`
	Status            *string    `json:"status,omitempty"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	Value             *float64   `json:"value,omitempty"`
	RenewalNoticeDays *int       `json:"renewalNoticeDays,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

func UpdateContract(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	var req UpdateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Type != nil {
		if !contractTypes[*req.Type] {
			utils.RespondWithError(w, http.StatusBadRequest, "unknown contract type")
			return
		}
		set["type"] = *req.Type
	}
	if req.Status != nil {
		if *req.Status != "active" && *req.Status != "expired" && *req.Status != "terminated" {
			utils.RespondWithError(w, http.StatusBadRequest, "unknown contract status")
			return
		}
		set["status"] = *req.Status
	}
	if req.StartDate != nil {
		set["startDate"] = *req.StartDate
	}
	if req.EndDate != nil {
		set["endDate"] = *req.EndDate
	}
	if req.Value != nil {
		set["value"] = *req.Value
	}
	if req.RenewalNoticeDays != nil {
		set["renewalNoticeDays"] = *req.RenewalNoticeDays
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := contractCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		log.Printf("contract update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update contract")
		return
	}
	if result.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "contract not found")
		return
	}

	RecordAudit(ctx, act, "update_contract", "contract", id, nil, set)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "contract updated"})
}

func DeleteContract(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if act.Role != "admin" {
		utils.RespondWithError(w, http.StatusForbidden, "only admins may delete contracts")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	licenseCount, err := licenseCollection.CountDocuments(ctx, bson.M{"contractId": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if licenseCount > 0 {
		utils.RespondWithError(w, http.StatusConflict, "contract still has licenses attached")
		return
	}

	result, err := contractCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Printf("contract delete error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete contract")
		return
	}
	if result.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "contract not found")
		return
	}

	RecordAudit(ctx, act, "delete_contract", "contract", id, nil, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "contract deleted"})
}

// ListExpiringContracts returns active contracts whose end date falls
// within the lookahead window (default 60 days).
func ListExpiringContracts(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	days := 60
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed >= 1 && parsed <= 365 {
			days = parsed
		}
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, days)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":  "active",
		"endDate": bson.M{"$gte": now, "$lte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}})

	cursor, err := contractCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("expiring contracts error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var contracts []models.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode contracts")
		return
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}

	utils.RespondWithJSON(w, http.StatusOK, contracts)
}
