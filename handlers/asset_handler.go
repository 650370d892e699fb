// handlers/asset_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
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

var fieldValidator = services.NewFieldValidator(nil)

// ListAssets returns assets filtered by state, class and free-text
// search, newest first.
func ListAssets(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}

	if state := r.URL.Query().Get("state"); state != "" && state != "all" {
		if !models.AssetState(state).Valid() {
			utils.RespondWithError(w, http.StatusBadRequest, "unknown asset state")
			return
		}
		filter["state"] = state
	}

	if class := r.URL.Query().Get("class"); class != "" && class != "all" {
		filter["class"] = class
	}

	if search := r.URL.Query().Get("search"); search != "" {
		regex := bson.M{"$regex": search, "$options": "i"}
		filter["$or"] = []bson.M{
			{"globalAssetId": regex},
			{"assetTag": regex},
			{"serialNumber": regex},
			{"model": regex},
		}
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed >= 1 && parsed <= 200 {
			limit = parsed
		}
	}
	skip := 0
	if skipStr := r.URL.Query().Get("skip"); skipStr != "" {
		if parsed, err := strconv.Atoi(skipStr); err == nil && parsed >= 0 {
			skip = parsed
		}
	}

	total, err := assetCollection.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("assets count error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := assetCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("assets Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var assets []models.Asset
	if err = cursor.All(ctx, &assets); err != nil {
		log.Printf("cursor decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode assets")
		return
	}

	if assets == nil {
		assets = []models.Asset{}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"assets": assets,
		"total":  total,
		"limit":  limit,
		"skip":   skip,
	})
}

type CreateAssetRequest struct {
	GlobalAssetID string              `json:"globalAssetId,omitempty"`
	AssetTag      string              `json:"assetTag,omitempty"`
	SerialNumber  string              `json:"serialNumber,omitempty"`
	Class         string              `json:"class"`
	State         models.AssetState   `json:"state,omitempty"`
	Model         string              `json:"model,omitempty"`
	Manufacturer  string              `json:"manufacturer,omitempty"`
	OwnerUserID   string              `json:"ownerUserId,omitempty"`
	DepartmentID  *primitive.ObjectID `json:"departmentId,omitempty"`
	Location      string              `json:"location,omitempty"`
	Purchase      models.Purchase     `json:"purchase,omitempty"`
	Warranty      models.Warranty     `json:"warranty,omitempty"`
	DeviceGUIDs   []string            `json:"deviceGuids,omitempty"`
	Notes         string              `json:"notes,omitempty"`
}

func CreateAsset(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to create asset")
		return
	}

	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !models.ValidAssetClass(req.Class) {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown asset class")
		return
	}

	// Assets enter the lifecycle at Ordered, or Received for stock
	// arriving mid-flow.
	state := req.State
	if state == "" {
		state = models.StateOrdered
	}
	if state != models.StateOrdered && state != models.StateReceived {
		utils.RespondWithError(w, http.StatusBadRequest, "new assets must start as Ordered or Received")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	globalID := req.GlobalAssetID
	if globalID == "" {
		generated, err := nextGlobalAssetID(ctx)
		if err != nil {
			log.Printf("global asset id generation error: %v", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "failed to allocate asset id")
			return
		}
		globalID = generated
	}

	asset := models.Asset{
		ID:            primitive.NewObjectID(),
		GlobalAssetID: globalID,
		AssetTag:      req.AssetTag,
		SerialNumber:  req.SerialNumber,
		Class:         req.Class,
		State:         state,
		Model:         req.Model,
		Manufacturer:  req.Manufacturer,
		DepartmentID:  req.DepartmentID,
		Location:      req.Location,
		Purchase:      req.Purchase,
		Warranty:      req.Warranty,
		DeviceGUIDs:   req.DeviceGUIDs,
		Notes:         req.Notes,
		CreatedBy:     act.ID,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if req.OwnerUserID != "" {
		owner, err := userRefByHex(ctx, req.OwnerUserID)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "owner user not found")
			return
		}
		asset.Owner = owner
	}

	if err := services.ValidateIdentifiers(asset); err != nil {
		respondServiceError(w, err)
		return
	}

	// globalAssetId is the unique, immutable identifier.
	count, err := assetCollection.CountDocuments(ctx, bson.M{"globalAssetId": asset.GlobalAssetID})
	if err != nil {
		log.Printf("unique check error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "globalAssetId already exists")
		return
	}

	if _, err := assetCollection.InsertOne(ctx, asset); err != nil {
		log.Printf("asset insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create asset")
		return
	}

	RecordAudit(ctx, act, "create_asset", "asset", asset.ID, nil, bson.M{
		"globalAssetId": asset.GlobalAssetID,
		"class":         asset.Class,
		"state":         asset.State,
	})
	websocket.SendAssetCreated(asset, act.ID.Hex(), act.Name)

	utils.RespondWithJSON(w, http.StatusCreated, asset)
}

func GetAsset(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	asset, err := assetByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, asset)
}

type UpdateAssetRequest struct {
	AssetTag     *string              `json:"assetTag,omitempty"`
	SerialNumber *string              `json:"serialNumber,omitempty"`
	Model        *string              `json:"model,omitempty"`
	Manufacturer *string              `json:"manufacturer,omitempty"`
	DepartmentID *primitive.ObjectID  `json:"departmentId,omitempty"`
	Location     *string              `json:"location,omitempty"`
	Purchase     *models.Purchase     `json:"purchase,omitempty"`
	Warranty     *models.Warranty     `json:"warranty,omitempty"`
	DeviceGUIDs  []string             `json:"deviceGuids,omitempty"`
	Notes        *string              `json:"notes,omitempty"`

	// Rejected if present: these fields change through dedicated
	// endpoints only.
	State         *string `json:"state,omitempty"`
	GlobalAssetID *string `json:"globalAssetId,omitempty"`
}

// UpdateAsset mutates descriptive fields. State changes go through
// TransitionAsset and globalAssetId is immutable.
func UpdateAsset(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to update asset")
		return
	}

	asset, err := assetByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	var req UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if req.State != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "state changes must use the transition endpoint")
		return
	}
	if req.GlobalAssetID != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "globalAssetId is immutable")
		return
	}

	previous := bson.M{}
	set := bson.M{"updatedAt": time.Now().UTC()}

	if req.AssetTag != nil {
		probe := *asset
		probe.AssetTag = *req.AssetTag
		if err := services.ValidateIdentifiers(probe); err != nil {
			respondServiceError(w, err)
			return
		}
		previous["assetTag"] = asset.AssetTag
		set["assetTag"] = *req.AssetTag
	}
	if req.SerialNumber != nil {
		probe := *asset
		probe.SerialNumber = *req.SerialNumber
		if err := services.ValidateIdentifiers(probe); err != nil {
			respondServiceError(w, err)
			return
		}
		previous["serialNumber"] = asset.SerialNumber
		set["serialNumber"] = *req.SerialNumber
	}
	if req.Model != nil {
		previous["model"] = asset.Model
		set["model"] = *req.Model
	}
	if req.Manufacturer != nil {
		previous["manufacturer"] = asset.Manufacturer
		set["manufacturer"] = *req.Manufacturer
	}
	if req.DepartmentID != nil {
		previous["departmentId"] = asset.DepartmentID
		set["departmentId"] = *req.DepartmentID
	}
	if req.Location != nil {
		previous["location"] = asset.Location
		set["location"] = *req.Location
	}
	if req.Purchase != nil {
		previous["purchase"] = asset.Purchase
		set["purchase"] = *req.Purchase
	}
	if req.Warranty != nil {
		previous["warranty"] = asset.Warranty
		set["warranty"] = *req.Warranty
	}
	if req.DeviceGUIDs != nil {
		previous["deviceGuids"] = asset.DeviceGUIDs
		set["deviceGuids"] = req.DeviceGUIDs
	}
	if req.Notes != nil {
		previous["notes"] = asset.Notes
		set["notes"] = *req.Notes
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := assetCollection.UpdateOne(ctx, bson.M{"_id": asset.ID}, bson.M{"$set": set}); err != nil {
		log.Printf("asset update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update asset")
		return
	}

	RecordAudit(ctx, act, "update_asset", "asset", asset.ID, previous, set)

	var updated models.Asset
	if err := assetCollection.FindOne(ctx, bson.M{"_id": asset.ID}).Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to reload asset")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

type TransitionRequest struct {
	TargetState models.AssetState `json:"targetState"`
}

// TransitionAsset drives the lifecycle state machine. Invalid pairs
// are 409, unmet preconditions 400, both with a machine-readable
// reason the frontend can act on.
func TransitionAsset(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canOperate(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to transition asset")
		return
	}

	asset, err := assetByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !req.TargetState.Valid() {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown target state")
		return
	}

	// Entering service requires a complete record for the asset's
	// class, beyond the owner precondition in the table.
	if req.TargetState == models.StateInService {
		category := services.CategoryForClass(asset.Class)
		if missing := fieldValidator.ValidateRequiredFields(*asset, category); len(missing) > 0 {
			utils.RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":         "asset record incomplete",
				"reason":        "missingRequiredFields",
				"missingFields": missing,
			})
			return
		}
	}

	updated, err := services.RequestTransition(*asset, req.TargetState)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	_, err = assetCollection.UpdateOne(ctx,
		bson.M{"_id": asset.ID},
		bson.M{"$set": bson.M{"state": updated.State, "updatedAt": time.Now().UTC()}})
	if err != nil {
		log.Printf("asset transition update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to persist transition")
		return
	}

	RecordAudit(ctx, act, "transition_asset", "asset", asset.ID,
		bson.M{"state": asset.State},
		bson.M{"state": updated.State})
	websocket.SendAssetStateChange(asset.ID, asset.State, updated.State, act.ID.Hex(), act.Name)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// GetAssetTransitions lists the states an asset may move to next, so
// the UI only offers legal actions.
func GetAssetTransitions(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	asset, err := assetByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	next := services.AllowedTransitions(asset.State)
	if next == nil {
		next = []models.AssetState{}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"state":       asset.State,
		"transitions": next,
	})
}

type WipeCertificateRequest struct {
	Reference string `json:"reference"`
	IssuedBy  string `json:"issuedBy"`
}

// AttachWipeCertificate records the erasure attestation required
// before an asset may be disposed.
func AttachWipeCertificate(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canOperate(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	asset, err := assetByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	var req WipeCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "certificate reference required")
		return
	}

	cert := models.WipeCertificate{
		Reference: req.Reference,
		IssuedBy:  req.IssuedBy,
		IssuedAt:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	_, err = assetCollection.UpdateOne(ctx,
		bson.M{"_id": asset.ID},
		bson.M{"$set": bson.M{"wipeCertificate": cert, "updatedAt": time.Now().UTC()}})
	if err != nil {
		log.Printf("wipe certificate update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to attach certificate")
		return
	}

	RecordAudit(ctx, act, "attach_wipe_certificate", "asset", asset.ID, nil, bson.M{
		"reference": cert.Reference,
		"issuedBy":  cert.IssuedBy,
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "certificate attached"})
}

type AssignOwnerRequest struct {
	UserID string `json:"userId"`
}

func AssignOwner(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canOperate(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	asset, err := assetByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	var req AssignOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "userId required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	owner, err := userRefByHex(ctx, req.UserID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "owner user not found")
		return
	}

	_, err = assetCollection.UpdateOne(ctx,
		bson.M{"_id": asset.ID},
		bson.M{"$set": bson.M{"owner": owner, "updatedAt": time.Now().UTC()}})
	if err != nil {
		log.Printf("owner assign error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to assign owner")
		return
	}

	RecordAudit(ctx, act, "assign_owner", "asset", asset.ID,
		bson.M{"owner": asset.Owner},
		bson.M{"owner": owner})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "owner assigned"})
}

func UnassignOwner(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canOperate(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	asset, err := assetByPathID(r)
	if err != nil {
		respondLookupError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	_, err = assetCollection.UpdateOne(ctx,
		bson.M{"_id": asset.ID},
		bson.M{"$unset": bson.M{"owner": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		log.Printf("owner unassign error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to unassign owner")
		return
	}

	RecordAudit(ctx, act, "unassign_owner", "asset", asset.ID,
		bson.M{"owner": asset.Owner}, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "owner unassigned"})
}

// ---- helpers ----

var errNotFound = errors.New("not found")

func assetByPathID(r *http.Request) (*models.Asset, error) {
	idStr := mux.Vars(r)["id"]
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid asset id: %w", err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var asset models.Asset
	err = assetCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&asset)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func respondLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "record not found")
	case strings.HasPrefix(err.Error(), "invalid"):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("lookup error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
	}
}

// respondServiceError maps the rule-layer error taxonomy onto HTTP.
func respondServiceError(w http.ResponseWriter, err error) {
	var ite *services.InvalidTransitionError
	if errors.As(err, &ite) {
		utils.RespondWithJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  ite.Error(),
			"reason": "invalidTransition",
			"from":   ite.From,
			"to":     ite.To,
		})
		return
	}

	var pfe *services.PreconditionFailedError
	if errors.As(err, &pfe) {
		utils.RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  pfe.Error(),
			"reason": pfe.Condition,
		})
		return
	}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		utils.RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  ve.Error(),
			"reason": "validationFailed",
			"field":  ve.Field,
		})
		return
	}

	log.Printf("unexpected service error: %v", err)
	utils.RespondWithError(w, http.StatusInternalServerError, "internal error")
}

func userRefByHex(ctx context.Context, hexID string) (*models.UserRef, error) {
	userID, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &models.UserRef{
		UserID:      user.ID,
		UPN:         user.UPN,
		DisplayName: user.FirstName + " " + user.LastName,
	}, nil
}

// nextGlobalAssetID allocates the next AS-YYYY-NNNNNN identifier.
// Sequence is per-collection; a duplicate insert is caught by the
// uniqueness check in CreateAsset.
func nextGlobalAssetID(ctx context.Context) (string, error) {
	count, err := assetCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AS-%d-%06d", time.Now().UTC().Year(), count+1), nil
}
