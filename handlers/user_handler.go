// handlers/user_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/utils"
)

func ListUsers(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" && role != "all" {
		filter["role"] = role
	}
	if search := r.URL.Query().Get("search"); search != "" {
		regex := bson.M{"$regex": search, "$options": "i"}
		filter["$or"] = []bson.M{
			{"firstName": regex},
			{"lastName": regex},
			{"email": regex},
			{"upn": regex},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}})
	cursor, err := userCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("users Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	for i := range users {
		users[i].PasswordHash = ""
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

type CreateUserRequest struct {
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	Email        string              `json:"email"`
	UPN          string              `json:"upn,omitempty"`
	JobTitle     string              `json:"jobTitle,omitempty"`
	Phone        string              `json:"phone,omitempty"`
	Role         string              `json:"role"`
	DepartmentID *primitive.ObjectID `json:"departmentId,omitempty"`
}

// CreateUsers provisions one or more accounts with generated
// temporary passwords, returned once in the response.
func CreateUsers(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if act.Role != "admin" {
		utils.RespondWithError(w, http.StatusForbidden, "only admins may create users")
		return
	}

	var reqs []CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil || len(reqs) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "expected a non-empty array of users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	type createdUser struct {
		User         models.User `json:"user"`
		TempPassword string      `json:"tempPassword"`
	}
	created := make([]createdUser, 0, len(reqs))

	for _, req := range reqs {
		email := strings.TrimSpace(strings.ToLower(req.Email))
		if email == "" || !strings.Contains(email, "@") {
			utils.RespondWithError(w, http.StatusBadRequest, "valid email required for every user")
			return
		}

		count, err := userCollection.CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "database error")
			return
		}
		if count > 0 {
			utils.RespondWithError(w, http.StatusConflict, "email already in use: "+email)
			return
		}

		tempPassword := utils.GenerateRandomPassword(12)
		hash, err := utils.HashPassword(tempPassword)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "password processing failed")
			return
		}

		user := models.User{
			ID:           primitive.NewObjectID(),
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        email,
			UPN:          req.UPN,
			JobTitle:     req.JobTitle,
			Phone:        req.Phone,
			PasswordHash: hash,
			Role:         normalizeRole(req.Role),
			DepartmentID: req.DepartmentID,
			CreatedAt:    time.Now().UTC(),
		}

		if _, err := userCollection.InsertOne(ctx, user); err != nil {
			log.Printf("user insert error: %v", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "failed to create user")
			return
		}

		RecordAudit(ctx, act, "create_user", "user", user.ID, nil, bson.M{
			"email": user.Email,
			"role":  user.Role,
		})

		user.PasswordHash = ""
		created = append(created, createdUser{User: user, TempPassword: tempPassword})
	}

	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func GetUser(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// Users may always read their own record.
	if id != act.ID && !canManage(act.Role) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}

	user.PasswordHash = ""
	utils.RespondWithJSON(w, http.StatusOK, user)
}

type UpdateUserRequest struct {
	FirstName    *string             `json:"firstName,omitempty"`
	LastName     *string             `json:"lastName,omitempty"`
	JobTitle     *string             `json:"jobTitle,omitempty"`
	Phone        *string             `json:"phone,omitempty"`
	Role         *string             `json:"role,omitempty"`
	DepartmentID *primitive.ObjectID `json:"departmentId,omitempty"`
}

func UpdateUser(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if act.Role != "admin" {
		utils.RespondWithError(w, http.StatusForbidden, "only admins may update users")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	set := bson.M{}
	if req.FirstName != nil {
		set["firstName"] = *req.FirstName
	}
	if req.LastName != nil {
		set["lastName"] = *req.LastName
	}
	if req.JobTitle != nil {
		set["jobTitle"] = *req.JobTitle
	}
	if req.Phone != nil {
		set["phone"] = *req.Phone
	}
	if req.Role != nil {
		set["role"] = normalizeRole(*req.Role)
	}
	if req.DepartmentID != nil {
		set["departmentId"] = *req.DepartmentID
	}
	if len(set) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "no updatable fields in payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := userCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		log.Printf("user update error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if result.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}

	RecordAudit(ctx, act, "update_user", "user", id, nil, set)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

func DeleteUser(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if act.Role != "admin" {
		utils.RespondWithError(w, http.StatusForbidden, "only admins may delete users")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if id == act.ID {
		utils.RespondWithError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Owned assets keep their owner snapshot; deletion only removes
	// the login.
	result, err := userCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Printf("user delete error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if result.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}

	RecordAudit(ctx, act, "delete_user", "user", id, nil, nil)

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
