// handlers/license_handler.go
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
	"github.com/Gerritbandison/Trackr-sub004/services"
	"github.com/Gerritbandison/Trackr-sub004/utils"
	"github.com/Gerritbandison/Trackr-sub004/websocket"
)

// ListLicenses returns licenses with derived fields refreshed against
// the current clock, so an expiration that passed since the last write
// is reported correctly without waiting for the next save.
func ListLicenses(w http.ResponseWriter, r *http.Request) {
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
	if compliance := r.URL.Query().Get("complianceStatus"); compliance != "" && compliance != "all" {
		filter["complianceStatus"] = compliance
	}
	if search := r.URL.Query().Get("search"); search != "" {
		regex := bson.M{"$regex": search, "$options": "i"}
		filter["$or"] = []bson.M{
			{"name": regex},
			{"vendor": regex},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := licenseCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("licenses Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var licenses []models.License
	if err = cursor.All(ctx, &licenses); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode licenses")
		return
	}
	if licenses == nil {
		licenses = []models.License{}
	}

	now := time.Now().UTC()
	for i := range licenses {
		licenses[i] = services.RecomputeDerivedFields(licenses[i], now)
	}

	utils.RespondWithJSON(w, http.StatusOK, licenses)
}

type LicenseRequest struct {
	Name           string              `json:"name"`
	Vendor         string              `json:"vendor"`
	VendorID       *primitive.ObjectID `json:"vendorId,omitempty"`
	Type           models.LicenseType  `json:"type"`
	TotalSeats     int                 `json:"totalSeats"`
	UsedSeats      int                 `json:"usedSeats"`
	ExpirationDate *time.Time          `json:"expirationDate,omitempty"`
	DepartmentID   *primitive.ObjectID `json:"departmentId,omitempty"`
	ContractID     *primitive.ObjectID `json:"contractId,omitempty"`
	Notes          string              `json:"notes,omitempty"`
}

func validLicenseType(t models.LicenseType) bool {
	return t == models.LicensePerpetual || t == models.LicenseSubscription || t == models.LicenseTrial
}

// CreateLicense persists a new entitlement. Derived fields in the
// payload are ignored; the accounting service computes them.
func CreateLicense(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to create license")
		return
	}

	var req LicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validLicenseType(req.Type) {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown license type")
		return
	}
	if req.TotalSeats < 0 || req.UsedSeats < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "seat counts must be non-negative")
		return
	}
	if req.Type != models.LicensePerpetual && req.ExpirationDate == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "expirationDate required for subscription and trial licenses")
		return
	}

	now := time.Now().UTC()
	license := models.License{
		ID:             primitive.NewObjectID(),
		Name:           req.Name,
		Vendor:         req.Vendor,
		VendorID:       req.VendorID,
		Type:           req.Type,
		TotalSeats:     req.TotalSeats,
		UsedSeats:      req.UsedSeats,
		ExpirationDate: req.ExpirationDate,
		Status:         models.LicenseActive,
		DepartmentID:   req.DepartmentID,
		ContractID:     req.ContractID,
		Notes:          req.Notes,
		CreatedBy:      act.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	license = services.RecomputeDerivedFields(license, now)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := licenseCollection.InsertOne(ctx, license); err != nil {
		log.Printf("license insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create license")
		return
	}

	RecordAudit(ctx, act, "create_license", "license", license.ID, nil, bson.M{
		"name":       license.Name,
		"type":       license.Type,
		"totalSeats": license.TotalSeats,
	})
	websocket.SendLicenseUpdated(license.ID, license, act.ID.Hex(), act.Name)

	utils.RespondWithJSON(w, http.StatusCreated, license)
}

func GetLicense(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	license, err := licenseByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	refreshed := services.RecomputeDerivedFields(*license, time.Now().UTC())
	utils.RespondWithJSON(w, http.StatusOK, refreshed)
}

type UpdateLicenseRequest struct {
	Name           *string              `json:"name,omitempty"`
	Vendor         *string              `json:"vendor,omitempty"`
	VendorID       *primitive.ObjectID  `json:"vendorId,omitempty"`
	Type           *models.LicenseType  `json:"type,omitempty"`
	TotalSeats     *int                 `json:"totalSeats,omitempty"`
	UsedSeats      *int                 `json:"usedSeats,omitempty"`
	ExpirationDate *time.Time           `json:"expirationDate,omitempty"`
	Status         *models.LicenseStatus `json:"status,omitempty"`
	DepartmentID   *primitive.ObjectID  `json:"departmentId,omitempty"`
	ContractID     *primitive.ObjectID  `json:"contractId,omitempty"`
	Notes          *string              `json:"notes,omitempty"`
}

// UpdateLicense applies caller changes then recomputes every derived
// field before saving. The only status a caller may set directly is
// cancelled; everything else is expiration-driven.
func UpdateLicense(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to update license")
		return
	}

	license, err := licenseByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	var req UpdateLicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	previous := bson.M{
		"totalSeats": license.TotalSeats,
		"usedSeats":  license.UsedSeats,
		"status":     license.Status,
	}

	if req.Name != nil {
		license.Name = *req.Name
	}
	if req.Vendor != nil {
		license.Vendor = *req.Vendor
	}
	if req.VendorID != nil {
		license.VendorID = req.VendorID
	}
	if req.Type != nil {
		if !validLicenseType(*req.Type) {
			utils.RespondWithError(w, http.StatusBadRequest, "unknown license type")
			return
		}
		license.Type = *req.Type
	}
	if req.TotalSeats != nil {
		if *req.TotalSeats < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "totalSeats must be non-negative")
			return
		}
		license.TotalSeats = *req.TotalSeats
	}
	if req.UsedSeats != nil {
		if *req.UsedSeats < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "usedSeats must be non-negative")
			return
		}
		license.UsedSeats = *req.UsedSeats
	}
	if req.ExpirationDate != nil {
		license.ExpirationDate = req.ExpirationDate
	}
	if req.Status != nil {
		if *req.Status != models.LicenseCancelled {
			utils.RespondWithError(w, http.StatusBadRequest, "status can only be set to cancelled; other values are derived")
			return
		}
		license.Status = models.LicenseCancelled
	}
	if req.DepartmentID != nil {
		license.DepartmentID = req.DepartmentID
	}
	if req.ContractID != nil {
		license.ContractID = req.ContractID
	}
	if req.Notes != nil {
		license.Notes = *req.Notes
	}

	license.UpdatedAt = time.Now().UTC()
	updated := services.RecomputeDerivedFields(*license, license.UpdatedAt)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := licenseCollection.ReplaceOne(ctx, bson.M{"_id": updated.ID}, updated); err != nil {
		log.Printf("license update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update license")
		return
	}

	RecordAudit(ctx, act, "update_license", "license", updated.ID, previous, bson.M{
		"totalSeats": updated.TotalSeats,
		"usedSeats":  updated.UsedSeats,
		"status":     updated.Status,
	})
	websocket.SendLicenseUpdated(updated.ID, updated, act.ID.Hex(), act.Name)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

type SeatAdjustmentRequest struct {
	Delta int `json:"delta"`
}

// AdjustSeats changes usedSeats by a delta (assign +1, release -1).
// Over-commit is allowed and surfaces as non-compliant rather than
// being rejected, so reality can always be recorded.
func AdjustSeats(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canOperate(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to adjust seats")
		return
	}

	license, err := licenseByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	var req SeatAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "non-zero delta required")
		return
	}

	newUsed := license.UsedSeats + req.Delta
	if newUsed < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "usedSeats cannot go below zero")
		return
	}

	previous := bson.M{"usedSeats": license.UsedSeats}
	license.UsedSeats = newUsed
	license.UpdatedAt = time.Now().UTC()
	updated := services.RecomputeDerivedFields(*license, license.UpdatedAt)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := licenseCollection.ReplaceOne(ctx, bson.M{"_id": updated.ID}, updated); err != nil {
		log.Printf("seat adjustment error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to adjust seats")
		return
	}

	RecordAudit(ctx, act, "adjust_seats", "license", updated.ID, previous, bson.M{
		"usedSeats":        updated.UsedSeats,
		"complianceStatus": updated.ComplianceStatus,
	})
	websocket.SendLicenseUpdated(updated.ID, updated, act.ID.Hex(), act.Name)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

func DeleteLicense(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if act.Role != "admin" {
		utils.RespondWithError(w, http.StatusForbidden, "only admins may delete licenses")
		return
	}

	license, err := licenseByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := licenseCollection.DeleteOne(ctx, bson.M{"_id": license.ID}); err != nil {
		log.Printf("license delete error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete license")
		return
	}

	RecordAudit(ctx, act, "delete_license", "license", license.ID,
		bson.M{"name": license.Name}, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "license deleted"})
}

// ListExpiringLicenses returns non-cancelled licenses expiring within
// the given number of days (default 30).
func ListExpiringLicenses(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	days := 30
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
		"status":         bson.M{"$ne": models.LicenseCancelled},
		"expirationDate": bson.M{"$gte": now, "$lte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expirationDate", Value: 1}})

	cursor, err := licenseCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("expiring licenses error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var licenses []models.License
	if err = cursor.All(ctx, &licenses); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode licenses")
		return
	}
	if licenses == nil {
		licenses = []models.License{}
	}

	for i := range licenses {
		licenses[i] = services.RecomputeDerivedFields(licenses[i], now)
	}

	utils.RespondWithJSON(w, http.StatusOK, licenses)
}

func licenseByPathID(r *http.Request) (*models.License, error) {
	idStr := mux.Vars(r)["id"]
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return nil, errNotFound
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var license models.License
	err = licenseCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&license)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errNotFound
		}
		return nil, err
	}
	return &license, nil
}
