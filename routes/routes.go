package routes

import (
	"github.com/gorilla/mux"

	"github.com/Gerritbandison/Trackr-sub004/handlers"
	"github.com/Gerritbandison/Trackr-sub004/middleware"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly    = []string{"GET", "OPTIONS"}
	MethodsPostOnly   = []string{"POST", "OPTIONS"}
	MethodsPutOnly    = []string{"PUT", "OPTIONS"}
	MethodsDeleteOnly = []string{"DELETE", "OPTIONS"}
)

const (
	PathAPI    = "/api"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router) {
	// ====================
	// HEALTH CHECK (Public)
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)

	// ====================
	// AUTHENTICATION ROUTES (Public - No auth required)
	// ====================
	r.HandleFunc("/api/auth/login", handlers.Login).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/logout", handlers.Logout).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/validate", handlers.ValidateToken).Methods(MethodsGetOnly...)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)

	// Live updates feed (token passed as query parameter)
	apiRouter.HandleFunc("/ws", handlers.HandleWebSocket).Methods(MethodsGetOnly...)

	// ====================
	// ASSETS
	// ====================
	apiRouter.HandleFunc("/assets", handlers.ListAssets).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets", handlers.CreateAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}", handlers.GetAsset).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/{id}", handlers.UpdateAsset).Methods(MethodsPutOnly...)

	// Lifecycle operations
	apiRouter.HandleFunc("/assets/{id}/transitions", handlers.GetAssetTransitions).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/{id}/transition", handlers.TransitionAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}/wipe-certificate", handlers.AttachWipeCertificate).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}/owner", handlers.AssignOwner).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}/owner", handlers.UnassignOwner).Methods(MethodsDeleteOnly...)

	// ====================
	// LICENSES
	// ====================
	apiRouter.HandleFunc("/licenses", handlers.ListLicenses).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/licenses", handlers.CreateLicense).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/licenses/expiring", handlers.ListExpiringLicenses).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/licenses/{id}", handlers.GetLicense).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/licenses/{id}", handlers.UpdateLicense).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/licenses/{id}", handlers.DeleteLicense).Methods(MethodsDeleteOnly...)
	apiRouter.HandleFunc("/licenses/{id}/seats", handlers.AdjustSeats).Methods(MethodsPostOnly...)

	// ====================
	// LOANER POOL
	// ====================
	apiRouter.HandleFunc("/loaners", handlers.ListLoaners).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/loaners/check-out", handlers.CheckOutAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/loaners/check-in", handlers.CheckInAsset).Methods(MethodsPostOnly...)

	// ====================
	// USER MANAGEMENT
	// ====================
	apiRouter.HandleFunc("/users", handlers.ListUsers).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/users", handlers.CreateUsers).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/users/{id}", handlers.GetUser).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/users/{id}", handlers.UpdateUser).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/users/{id}", handlers.DeleteUser).Methods(MethodsDeleteOnly...)
	apiRouter.HandleFunc("/user/change-password", handlers.ChangePassword).Methods(MethodsPostOnly...)

	// ====================
	// DEPARTMENTS
	// ====================
	apiRouter.HandleFunc("/departments", handlers.ListDepartments).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/departments", handlers.CreateDepartment).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/departments/{id}", handlers.UpdateDepartment).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/departments/{id}", handlers.DeleteDepartment).Methods(MethodsDeleteOnly...)

	// ====================
	// VENDORS
	// ====================
	apiRouter.HandleFunc("/vendors", handlers.ListVendors).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/vendors", handlers.CreateVendor).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/vendors/{id}", handlers.UpdateVendor).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/vendors/{id}", handlers.DeleteVendor).Methods(MethodsDeleteOnly...)

	// ====================
	// CONTRACTS
	// ====================
	apiRouter.HandleFunc("/contracts", handlers.ListContracts).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/contracts", handlers.CreateContract).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/contracts/expiring", handlers.ListExpiringContracts).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/contracts/{id}", handlers.GetContract).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/contracts/{id}", handlers.UpdateContract).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/contracts/{id}", handlers.DeleteContract).Methods(MethodsDeleteOnly...)

	// ====================
	// ATTESTATIONS
	// ====================
	apiRouter.HandleFunc("/attestations", handlers.ListAttestations).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/attestations", handlers.CreateAttestation).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/attestations/{id}/review", handlers.ReviewAttestation).Methods(MethodsPostOnly...)

	// ====================
	// AUDIT LOGS
	// ====================
	apiRouter.HandleFunc("/audit", handlers.ListAuditLogs).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/audit/stats", handlers.GetAuditStats).Methods(MethodsGetOnly...)

	// ====================
	// DASHBOARD
	// ====================
	apiRouter.HandleFunc("/dashboard/summary", handlers.GetDashboardSummary).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/dashboard/activity", handlers.GetRecentActivity).Methods(MethodsGetOnly...)
}
