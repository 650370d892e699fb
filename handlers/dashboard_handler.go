// handlers/dashboard_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gerritbandison/Trackr-sub004/models"
	"github.com/Gerritbandison/Trackr-sub004/utils"
)

// GetDashboardSummary returns the aggregate numbers the dashboard
// cards display: asset state/class distributions, license compliance
// breakdown and upcoming expirations.
func GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	assetsByState, err := countsByField(ctx, assetCollection, "$state")
	if err != nil {
		log.Printf("dashboard asset state aggregation error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to aggregate assets")
		return
	}

	assetsByClass, err := countsByField(ctx, assetCollection, "$class")
	if err != nil {
		log.Printf("dashboard asset class aggregation error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to aggregate assets")
		return
	}

	licensesByCompliance, err := countsByField(ctx, licenseCollection, "$complianceStatus")
	if err != nil {
		log.Printf("dashboard compliance aggregation error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to aggregate licenses")
		return
	}

	totalAssets, _ := assetCollection.CountDocuments(ctx, bson.M{})
	totalLicenses, _ := licenseCollection.CountDocuments(ctx, bson.M{})
	openLoaners, _ := loanerCollection.CountDocuments(ctx, bson.M{"status": "checked_out"})
	pendingAttestations, _ := attestationCollection.CountDocuments(ctx, bson.M{"status": "pending"})

	now := time.Now().UTC()
	in30 := now.AddDate(0, 0, 30)
	in60 := now.AddDate(0, 0, 60)

	expiringLicenses, _ := licenseCollection.CountDocuments(ctx, bson.M{
		"status":         bson.M{"$ne": models.LicenseCancelled},
		"expirationDate": bson.M{"$gte": now, "$lte": in30},
	})
	expiringContracts, _ := contractCollection.CountDocuments(ctx, bson.M{
		"status":  "active",
		"endDate": bson.M{"$gte": now, "$lte": in60},
	})

	seatTotals, err := seatSummary(ctx)
	if err != nil {
		log.Printf("dashboard seat aggregation error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to aggregate seats")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"totalAssets":          totalAssets,
		"totalLicenses":        totalLicenses,
		"assetsByState":        assetsByState,
		"assetsByClass":        assetsByClass,
		"licensesByCompliance": licensesByCompliance,
		"seats":                seatTotals,
		"openLoaners":          openLoaners,
		"pendingAttestations":  pendingAttestations,
		"expiringLicenses30d":  expiringLicenses,
		"expiringContracts60d": expiringContracts,
	})
}

// GetRecentActivity returns the latest audit entries for the activity
// feed.
func GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestActor(r); !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(20)

	cursor, err := auditLogCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Printf("recent activity error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var entries []models.AuditLog
	if err = cursor.All(ctx, &entries); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode activity")
		return
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}

	utils.RespondWithJSON(w, http.StatusOK, entries)
}

func countsByField(ctx context.Context, coll *mongo.Collection, field string) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": field, "count": bson.M{"$sum": 1}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
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
	return counts, cursor.Err()
}

func seatSummary(ctx context.Context) (map[string]int64, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"status": bson.M{"$ne": models.LicenseCancelled}}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$totalSeats"},
			"used":  bson.M{"$sum": "$usedSeats"},
		}},
	}
	cursor, err := licenseCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	summary := map[string]int64{"total": 0, "used": 0, "available": 0}
	if cursor.Next(ctx) {
		var row struct {
			Total int64 `bson:"total"`
			Used  int64 `bson:"used"`
		}
		if err := cursor.Decode(&row); err == nil {
			summary["total"] = row.Total
			summary["used"] = row.Used
			summary["available"] = row.Total - row.Used
		}
	}
	return summary, cursor.Err()
}
