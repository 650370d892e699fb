package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Gerritbandison/Trackr-sub004/models"
)

func ownedAsset(state models.AssetState) models.Asset {
	return models.Asset{
		GlobalAssetID: "AS-2025-000123",
		Class:         "Laptop",
		State:         state,
		Owner: &models.UserRef{
			UserID:      primitive.NewObjectID(),
			UPN:         "jdoe@corp.example",
			DisplayName: "J. Doe",
		},
	}
}

func TestRequestTransitionTableMembership(t *testing.T) {
	tests := []struct {
		name    string
		from    models.AssetState
		to      models.AssetState
		allowed bool
	}{
		{"ordered to received", models.StateOrdered, models.StateReceived, true},
		{"received to staging", models.StateReceived, models.StateInStaging, true},
		{"service to repair", models.StateInService, models.StateInRepair, true},
		{"service to loaner", models.StateInService, models.StateInLoaner, true},
		{"repair back to service", models.StateInRepair, models.StateInService, true},
		{"loaner back to service", models.StateInLoaner, models.StateInService, true},
		{"service to lost", models.StateInService, models.StateLost, true},
		{"service to retired", models.StateInService, models.StateRetired, true},
		{"lost recovered to service", models.StateLost, models.StateInService, true},

		// No implicit transitions: pairs absent from the table fail.
		{"ordered straight to service", models.StateOrdered, models.StateInService, false},
		{"staging to retired", models.StateInStaging, models.StateRetired, false},
		{"received to service", models.StateReceived, models.StateInService, false},
		{"disposed is terminal", models.StateDisposed, models.StateInService, false},
		{"same state", models.StateInService, models.StateInService, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequestTransition(ownedAsset(tt.from), tt.to)
			if !tt.allowed {
				var ite *InvalidTransitionError
				require.ErrorAs(t, err, &ite)
				assert.Equal(t, tt.from, ite.From)
				assert.Equal(t, tt.to, ite.To)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.State)
		})
	}
}

func TestRequestTransitionOwnerPrecondition(t *testing.T) {
	asset := ownedAsset(models.StateInStaging)
	asset.Owner = nil

	_, err := RequestTransition(asset, models.StateInService)
	var pfe *PreconditionFailedError
	require.ErrorAs(t, err, &pfe)
	assert.Equal(t, CondOwnerRequired, pfe.Condition)

	asset.Owner = &models.UserRef{UserID: primitive.NewObjectID()}
	got, err := RequestTransition(asset, models.StateInService)
	require.NoError(t, err)
	assert.Equal(t, models.StateInService, got.State)
}

func TestRequestTransitionWipeCertPrecondition(t *testing.T) {
	for _, from := range []models.AssetState{models.StateInService, models.StateRetired} {
		asset := ownedAsset(from)
		asset.WipeCertificate = nil

		_, err := RequestTransition(asset, models.StateDisposed)
		var pfe *PreconditionFailedError
		require.ErrorAs(t, err, &pfe, "from %s", from)
		assert.Equal(t, CondDataWipeCertRequired, pfe.Condition)

		asset.WipeCertificate = &models.WipeCertificate{
			Reference: "WIPE-7781",
			IssuedBy:  "SecureErase Inc",
			IssuedAt:  time.Now().UTC(),
		}
		got, err := RequestTransition(asset, models.StateDisposed)
		require.NoError(t, err)
		assert.Equal(t, models.StateDisposed, got.State)
	}
}

func TestRequestTransitionOnlyStateChanges(t *testing.T) {
	asset := ownedAsset(models.StateInService)
	asset.SerialNumber = "SN-123456"
	asset.Location = "HQ-3F"

	got, err := RequestTransition(asset, models.StateInRepair)
	require.NoError(t, err)

	want := asset
	want.State = models.StateInRepair
	assert.Equal(t, want, got)

	// Input snapshot untouched.
	assert.Equal(t, models.StateInService, asset.State)
}

func TestAllowedTransitions(t *testing.T) {
	next := AllowedTransitions(models.StateInService)
	assert.ElementsMatch(t, []models.AssetState{
		models.StateInRepair, models.StateInLoaner,
		models.StateLost, models.StateRetired, models.StateDisposed,
	}, next)

	assert.Empty(t, AllowedTransitions(models.StateDisposed))
}

func TestValidateIdentifiers(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.Asset)
		wantField string
	}{
		{"valid full set", func(a *models.Asset) {
			a.AssetTag = "IT-LAP-00123"
			a.SerialNumber = "C02XK1JGHV2X"
		}, ""},
		{"valid without optional tags", func(a *models.Asset) {}, ""},
		{"bad global id prefix", func(a *models.Asset) {
			a.GlobalAssetID = "AX-2025-000123"
		}, "globalAssetId"},
		{"bad global id digits", func(a *models.Asset) {
			a.GlobalAssetID = "AS-2025-12345"
		}, "globalAssetId"},
		{"bad asset tag", func(a *models.Asset) {
			a.AssetTag = "it-lap-00123"
		}, "assetTag"},
		{"serial too short", func(a *models.Asset) {
			a.SerialNumber = "AB1"
		}, "serialNumber"},
		{"serial lowercase", func(a *models.Asset) {
			a.SerialNumber = "abcdef123456"
		}, "serialNumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := ownedAsset(models.StateOrdered)
			tt.mutate(&asset)
			err := ValidateIdentifiers(asset)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestValidateRequiredFieldsEndUserDevice(t *testing.T) {
	v := NewFieldValidator(nil)

	bare := models.Asset{
		GlobalAssetID: "AS-2025-000200",
		Class:         "Laptop",
		State:         models.StateOrdered,
	}
	missing := v.ValidateRequiredFields(bare, CategoryEndUserDevice)
	assert.ElementsMatch(t, []string{
		"model", "serialNumber", "owner",
		"purchase.unitCost", "purchase.po", "purchase.invoice",
		"warranty.start", "warranty.end",
		"location", "deviceGuids",
	}, missing)

	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(3, 0, 0)
	full := bare
	full.Model = "ThinkPad T14s"
	full.SerialNumber = "PF3K2T9Q"
	full.Owner = &models.UserRef{UserID: primitive.NewObjectID()}
	full.Purchase = models.Purchase{UnitCost: 1499.00, PO: "PO-5541", Invoice: "INV-8810"}
	full.Warranty = models.Warranty{Start: &start, End: &end}
	full.Location = "HQ-2F"
	full.DeviceGUIDs = []string{"a2f1c7f0-9c1e-4f7c-9a44-0d1b2c3d4e5f"}
	assert.Empty(t, v.ValidateRequiredFields(full, CategoryEndUserDevice))
}

func TestValidateRequiredFieldsPeripheral(t *testing.T) {
	v := NewFieldValidator(nil)

	asset := models.Asset{
		GlobalAssetID: "AS-2025-000201",
		Class:         "Monitor",
		State:         models.StateReceived,
		Model:         "Dell U2723QE",
	}
	assert.Equal(t, []string{"location"}, v.ValidateRequiredFields(asset, CategoryPeripheral))
}

func TestFieldValidatorCustomPolicy(t *testing.T) {
	policy := FieldPolicy{CategoryPeripheral: {"serialNumber"}}
	v := NewFieldValidator(policy)

	asset := models.Asset{GlobalAssetID: "AS-2025-000202", State: models.StateOrdered}
	assert.Equal(t, []string{"serialNumber"}, v.ValidateRequiredFields(asset, CategoryPeripheral))

	asset.SerialNumber = "SN-900100"
	assert.Empty(t, v.ValidateRequiredFields(asset, CategoryPeripheral))
}

func TestCategoryForClass(t *testing.T) {
	assert.Equal(t, CategoryEndUserDevice, CategoryForClass("Laptop"))
	assert.Equal(t, CategoryEndUserDevice, CategoryForClass("Server"))
	assert.Equal(t, CategoryPeripheral, CategoryForClass("Monitor"))
	assert.Equal(t, CategoryPeripheral, CategoryForClass("Other"))
}
