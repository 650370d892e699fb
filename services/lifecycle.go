// services/lifecycle.go
//
// Asset lifecycle rules: which state transitions are legal, what must
// be true on the record before a transition is allowed, and which
// fields an asset of a given class must carry. Everything here is a
// pure function over the asset snapshot; persistence and auditing
// happen in the handlers.
package services

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Gerritbandison/Trackr-sub004/models"
)

// transition is one allowed edge in the lifecycle state machine. The
// table is the single source of truth: a pair absent here is rejected.
type transition struct {
	From      models.AssetState
	To        models.AssetState
	Condition string // precondition code, empty if unconditional
}

var transitionTable = []transition{
	// Intake path
	{From: models.StateOrdered, To: models.StateReceived},
	{From: models.StateReceived, To: models.StateInStaging},
	{From: models.StateInStaging, To: models.StateInService, Condition: CondOwnerRequired},

	// In-service loops
	{From: models.StateInService, To: models.StateInRepair},
	{From: models.StateInService, To: models.StateInLoaner},
	{From: models.StateInRepair, To: models.StateInService},
	{From: models.StateInLoaner, To: models.StateInService},

	// Exit path
	{From: models.StateInService, To: models.StateLost},
	{From: models.StateInService, To: models.StateRetired},
	{From: models.StateInService, To: models.StateDisposed, Condition: CondDataWipeCertRequired},
	{From: models.StateLost, To: models.StateInService}, // recovery
	{From: models.StateRetired, To: models.StateDisposed, Condition: CondDataWipeCertRequired},
}

func transitionFor(from, to models.AssetState) (transition, bool) {
	for _, tr := range transitionTable {
		if tr.From == from && tr.To == to {
			return tr, true
		}
	}
	return transition{}, false
}

// AllowedTransitions returns the states an asset may move to next.
func AllowedTransitions(from models.AssetState) []models.AssetState {
	var out []models.AssetState
	for _, tr := range transitionTable {
		if tr.From == from {
			out = append(out, tr.To)
		}
	}
	return out
}

// RequestTransition validates a state change against the transition
// table and its precondition. On success it returns a copy of the
// asset with only State changed; side-effect field changes (clearing
// the owner on disposal, etc.) are the caller's responsibility.
func RequestTransition(asset models.Asset, target models.AssetState) (models.Asset, error) {
	tr, ok := transitionFor(asset.State, target)
	if !ok {
		return models.Asset{}, &InvalidTransitionError{From: asset.State, To: target}
	}
	if tr.Condition != "" {
		if err := checkPrecondition(tr.Condition, &asset); err != nil {
			return models.Asset{}, err
		}
	}
	out := asset
	out.State = target
	return out, nil
}

func checkPrecondition(condition string, asset *models.Asset) error {
	switch condition {
	case CondOwnerRequired:
		if asset.Owner == nil {
			return &PreconditionFailedError{Condition: CondOwnerRequired}
		}
	case CondDataWipeCertRequired:
		if asset.WipeCertificate == nil {
			return &PreconditionFailedError{Condition: CondDataWipeCertRequired}
		}
	}
	return nil
}

// ClassCategory groups asset classes for the required-field policy.
type ClassCategory string

const (
	CategoryEndUserDevice ClassCategory = "end_user_device"
	CategoryPeripheral    ClassCategory = "peripheral_consumable"
	CategorySaaSLicense   ClassCategory = "saas_license"
)

// CategoryForClass maps a hardware class to its policy category.
func CategoryForClass(class string) ClassCategory {
	switch class {
	case "Laptop", "Desktop", "Phone", "Tablet", "Server", "Network Device":
		return CategoryEndUserDevice
	default:
		return CategoryPeripheral
	}
}

// FieldPolicy lists the dotted bson paths an asset of each category
// must carry. It is passed in at construction rather than read as a
// global so a deployment can tighten or relax it without code change.
type FieldPolicy map[ClassCategory][]string

func DefaultFieldPolicy() FieldPolicy {
	return FieldPolicy{
		CategoryEndUserDevice: {
			"model", "serialNumber", "owner",
			"purchase.unitCost", "purchase.po", "purchase.invoice",
			"warranty.start", "warranty.end",
			"location", "state", "deviceGuids",
		},
		CategoryPeripheral: {
			"model", "location", "state",
		},
		CategorySaaSLicense: {
			"owner", "state",
		},
	}
}

type FieldValidator struct {
	policy FieldPolicy
}

func NewFieldValidator(policy FieldPolicy) *FieldValidator {
	if policy == nil {
		policy = DefaultFieldPolicy()
	}
	return &FieldValidator{policy: policy}
}

// ValidateRequiredFields returns the dotted paths missing from the
// asset for its category. An empty result means the record is complete.
func (v *FieldValidator) ValidateRequiredFields(asset models.Asset, category ClassCategory) []string {
	doc := assetDoc(asset)
	var missing []string
	for _, path := range v.policy[category] {
		if !pathPresent(doc, path) {
			missing = append(missing, path)
		}
	}
	return missing
}

// assetDoc round-trips the asset through bson so omitempty drops the
// unset fields and the dotted-path walk sees what Mongo would store.
func assetDoc(asset models.Asset) bson.M {
	raw, err := bson.Marshal(asset)
	if err != nil {
		return bson.M{}
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return bson.M{}
	}
	return doc
}

func pathPresent(doc bson.M, path string) bool {
	parts := strings.Split(path, ".")
	var cur interface{} = doc
	for _, part := range parts {
		m, ok := cur.(bson.M)
		if !ok {
			if mm, ok2 := cur.(map[string]interface{}); ok2 {
				m = bson.M(mm)
			} else {
				return false
			}
		}
		cur, ok = m[part]
		if !ok {
			return false
		}
	}
	switch val := cur.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bson.A:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	}
	return true
}

// Identifier patterns gate acceptance at creation time. globalAssetId
// is immutable once accepted; assetTag and serialNumber are optional
// but must match when present.
var (
	globalAssetIDPattern = regexp.MustCompile(`^AS-\d{4}-\d{6}$`)
	assetTagPattern      = regexp.MustCompile(`^[A-Z]{2}(-[A-Z]{3}){1,2}-\d{3}(\d{2})?$`)
	serialNumberPattern  = regexp.MustCompile(`^[A-Z0-9-]{6,20}$`)
)

// ValidateIdentifiers checks the three identifier fields and reports
// the first offending one.
func ValidateIdentifiers(asset models.Asset) error {
	if !globalAssetIDPattern.MatchString(asset.GlobalAssetID) {
		return &ValidationError{Field: "globalAssetId", Message: "must match AS-YYYY-NNNNNN"}
	}
	if asset.AssetTag != "" && !assetTagPattern.MatchString(asset.AssetTag) {
		return &ValidationError{Field: "assetTag", Message: "malformed asset tag"}
	}
	if asset.SerialNumber != "" && !serialNumberPattern.MatchString(asset.SerialNumber) {
		return &ValidationError{Field: "serialNumber", Message: "must be 6-20 chars of A-Z, 0-9 or dash"}
	}
	return nil
}
