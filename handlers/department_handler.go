// handlers/department_handler.go
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

func ListDepartments(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := departmentCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Printf("departments Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var departments []models.Department
	if err = cursor.All(ctx, &departments); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode departments")
		return
	}
	if departments == nil {
		departments = []models.Department{}
	}

	utils.RespondWithJSON(w, http.StatusOK, departments)
}

type DepartmentRequest struct {
	Name       string              `json:"name"`
	CostCenter string              `json:"costCenter,omitempty"`
	Location   string              `json:"location,omitempty"`
	ManagerID  *primitive.ObjectID `json:"managerId,omitempty"`
}

func CreateDepartment(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := departmentCollection.CountDocuments(ctx, bson.M{"name": req.Name})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "department name already exists")
		return
	}

	department := models.Department{
		ID:         primitive.NewObjectID(),
		Name:       req.Name,
		CostCenter: req.CostCenter,
		Location:   req.Location,
		ManagerID:  req.ManagerID,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := departmentCollection.InsertOne(ctx, department); err != nil {
		log.Printf("department insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to create department")
		return
	}

	RecordAudit(ctx, act, "create_department", "department", department.ID, nil, bson.M{"name": department.Name})

	utils.RespondWithJSON(w, http.StatusCreated, department)
}

func UpdateDepartment(w http.ResponseWriter, r *http.Request) {
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
		utils.RespondWithError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	set := bson.M{
		"name":       req.Name,
		"costCenter": req.CostCenter,
		"location":   req.Location,
	}
	if req.ManagerID != nil {
		set["managerId"] = *req.ManagerID
	}

	result, err := departmentCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		log.Printf("department update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update department")
		return
	}
	if result.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "department not found")
		return
	}

	RecordAudit(ctx, act, "update_department", "department", id, nil, set)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "department updated"})
}

// DeleteDepartment refuses when assets or users still reference the
// department.
func DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if act.Role != "admin" {
		utils.RespondWithError(w, http.StatusForbidden, "only admins may delete departments")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assetCount, err := assetCollection.CountDocuments(ctx, bson.M{"departmentId": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	userCount, err := userCollection.CountDocuments(ctx, bson.M{"departmentId": id})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "database error")
		return
	}
	if assetCount > 0 || userCount > 0 {
		utils.RespondWithError(w, http.StatusConflict, "department still has assigned assets or users")
		return
	}

	result, err := departmentCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Printf("department delete error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete department")
		return
	}
	if result.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "department not found")
		return
	}

	RecordAudit(ctx, act, "delete_department", "department", id, nil, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "department deleted"})
}
