// handlers/vendor_handler.go
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
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/utils"
)

func ListVendors(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if search := r.URL.Query().Get("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := vendorCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("vendors Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var vendors []models.Vendor
	if err = cursor.All(ctx, &vendors); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode vendors")
		return
	}
	if vendors == nil {
		vendors = []models.Vendor{}
	}

	utils.RespondWithJSON(w, http.StatusOK, vendors)
}

type VendorRequest struct {
	Name           string `json:"name"`
	Website        string `json:"website,omitempty"`
	SupportEmail   string `json:"supportEmail,omitempty"`
	SupportPhone   string `json:"supportPhone,omitempty"`
	AccountManager string `json:"accountManager,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func CreateVendor(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req VendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := vendorCollection.CountDocuments(ctx, bson.M{"name": req.Name})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "vendor name already exists")
		return
	}

	vendor := models.Vendor{
		ID:             primitive.NewObjectID(),
		Name:           req.Name,
		Website:        req.Website,
		SupportEmail:   req.SupportEmail,
		SupportPhone:   req.SupportPhone,
		AccountManager: req.AccountManager,
		Notes:          req.Notes,
		CreatedAt:      time.Now().UTC(),
	}

	if _, err := vendorCollection.InsertOne(ctx, vendor); err != nil {
		log.Printf("vendor insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create vendor")
		return
	}

	RecordAudit(ctx, act, "create_vendor", "vendor", vendor.ID, nil, bson.M{"name": vendor.Name})

	utils.RespondWithJSON(w, http.StatusCreated, vendor)
}

func UpdateVendor(w http.ResponseWriter, r *http.Request) {
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
		utils.RespondWithError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}

	var req VendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	set := bson.M{
		"name":           req.Name,
		"website":        req.Website,
		"supportEmail":   req.SupportEmail,
		"supportPhone":   req.SupportPhone,
		"accountManager": req.AccountManager,
		"notes":          req.Notes,
	}

	result, err := vendorCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		log.Printf("vendor update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update vendor")
		return
	}
	if result.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "vendor not found")
		return
	}

	RecordAudit(ctx, act, "update_vendor", "vendor", id, nil, set)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "vendor updated"})
}

// DeleteVendor refuses when contracts or licenses still reference the
// vendor.
func DeleteVendor(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if act.Role != "admin" {
		utils.RespondWithError(w, http.StatusForbidden, "only admins may delete vendors")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	contractCount, err := contractCollection.CountDocuments(ctx, bson.M{"vendorId": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	licenseCount, err := licenseCollection.CountDocuments(ctx, bson.M{"vendorId": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if contractCount > 0 || licenseCount > 0 {
		utils.RespondWithError(w, http.StatusConflict, "vendor still has contracts or licenses")
		return
	}

	result, err := vendorCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Printf("vendor delete error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete vendor")
		return
	}
	if result.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "vendor not found")
		return
	}

	RecordAudit(ctx, act, "delete_vendor", "vendor", id, nil, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "vendor deleted"})
}
