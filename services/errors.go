// services/errors.go
package services

import (
	"fmt"

	"github.com/Gerritbandison/Trackr-sub004/models"
)

// Named precondition codes surfaced to the API so the frontend can
// prompt for the missing piece.
const (
	CondOwnerRequired        = "ownerRequired"
	CondDataWipeCertRequired = "dataWipeCertRequired"
)

// InvalidTransitionError means the requested (from, to) pair is not in
// the transition table. There are no implicit transitions.
type InvalidTransitionError struct {
	From models.AssetState
	To   models.AssetState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %q -> %q", e.From, e.To)
}

// PreconditionFailedError means the transition exists but a named
// precondition is unmet on the asset record.
type PreconditionFailedError struct {
	Condition string
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("precondition failed: %s", e.Condition)
}

// ValidationError reports a single field rejected at creation time,
// either an identifier pattern mismatch or a bad enum value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed on %s", e.Field)
}
