// handlers/audit_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/utils"
	"github.com/Gerritbandison/Trackr-sub004/websocket"
)

// RecordAudit writes an audit entry and streams it to connected
// clients. Auditing never fails the request that triggered it.
func RecordAudit(ctx context.Context, act *actor, action, resourceType string, resourceID primitive.ObjectID, previous, next bson.M) {
	entry := models.AuditLog{
		ID:            primitive.NewObjectID(),
		ActorID:       act.ID,
		ActorName:     act.Name,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		PreviousValue: previous,
		NewValue:      next,
		CreatedAt:     time.Now().UTC(),
	}

	if _, err := auditLogCollection.InsertOne(ctx, entry); err != nil {
		log.Printf("audit insert failed for %s %s: %v", action, resourceID.Hex(), err)
		return
	}

	websocket.SendAudit(&entry)
}

// HandleWebSocket upgrades a dashboard connection to the live feed.
// Auth middleware skips upgrade requests, so the token comes in as a
// query parameter here.
func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "token required")
		return
	}

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	log.Printf("websocket connect: user %s (%s)", claims.UserID, claims.Role)
	websocket.ServeWS(w, r, claims.UserID, claims.Role)
}

func ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			parsed = 50
		}
		limit = parsed
	}

	skipStr := r.URL.Query().Get("skip")
	skip := 0
	if skipStr != "" {
		parsed, err := strconv.Atoi(skipStr)
		if err != nil || parsed < 0 {
			parsed = 0
		}
		skip = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}

	if resourceType := r.URL.Query().Get("resourceType"); resourceType != "" && resourceType != "all" {
		filter["resourceType"] = resourceType
	}

	if action := r.URL.Query().Get("action"); action != "" && action != "all" {
		filter["action"] = bson.M{"$regex": action, "$options": "i"}
	}

	if actorID := r.URL.Query().Get("actorId"); actorID != "" && actorID != "all" {
		actorObjID, err := primitive.ObjectIDFromHex(actorID)
		if err == nil {
			filter["actorId"] = actorObjID
		}
	}

	if timeRange := r.URL.Query().Get("timeRange"); timeRange != "" {
		startDate := calculateStartDate(timeRange)
		if !startDate.IsZero() {
			filter["createdAt"] = bson.M{"$gte": startDate}
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := auditLogCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("audit find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch audit logs")
		return
	}
	defer cursor.Close(ctx)

	var logs []models.AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode audit logs")
		return
	}

	if logs == nil {
		logs = []models.AuditLog{}
	}

	utils.RespondWithJSON(w, http.StatusOK, logs)
}

// GetAuditStats returns entry counts grouped by resource type and by
// action over the selected range.
func GetAuditStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	match := bson.M{}
	if timeRange := r.URL.Query().Get("timeRange"); timeRange != "" {
		startDate := calculateStartDate(timeRange)
		if !startDate.IsZero() {
			match["createdAt"] = bson.M{"$gte": startDate}
		}
	}

	byResource, err := groupCounts(ctx, match, "$resourceType")
	if err != nil {
		log.Printf("audit stats aggregation error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to aggregate audit stats")
		return
	}

	byAction, err := groupCounts(ctx, match, "$action")
	if err != nil {
		log.Printf("audit stats aggregation error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to aggregate audit stats")
		return
	}

	total, err := auditLogCollection.CountDocuments(ctx, match)
	if err != nil {
		total = 0
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total":          total,
		"byResourceType": byResource,
		"byAction":       byAction,
	})
}

func groupCounts(ctx context.Context, match bson.M, field string) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": field, "count": bson.M{"$sum": 1}}},
	}
	cursor, err := auditLogCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := map[string]int64{}
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err == nil {
			counts[row.ID] = row.Count
		}
	}
	return counts, nil
}

func calculateStartDate(timeRange string) time.Time {
	now := time.Now().UTC()
	switch timeRange {
	case "24h":
		return now.Add(-24 * time.Hour)
	case "7d":
		return now.AddDate(0, 0, -7)
	case "30d":
		return now.AddDate(0, 0, -30)
	case "90d":
		return now.AddDate(0, 0, -90)
	default:
		return time.Time{}
	}
}
