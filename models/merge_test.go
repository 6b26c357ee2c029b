package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var mergeNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMergeFarmerFirstWrite(t *testing.T) {
	incoming := &Farmer{
		Address: "0xAB00000000000000000000000000000000000001",
		Name:    "Aye Min",
	}

	proven := MergeFarmer(nil, incoming, SourceProvenClaim, mergeNow)
	if proven.Provisional {
		t.Error("proven claim produced a provisional row")
	}
	if proven.Address != "0xab00000000000000000000000000000000000001" {
		t.Errorf("Address = %q, want lower-cased", proven.Address)
	}
	if proven.LastSyncedAt == nil || !proven.LastSyncedAt.Equal(mergeNow) {
		t.Errorf("LastSyncedAt = %v, want %v", proven.LastSyncedAt, mergeNow)
	}

	unproven := MergeFarmer(nil, incoming, SourceUnprovenClaim, mergeNow)
	if !unproven.Provisional {
		t.Error("unproven claim did not mark the new row provisional")
	}
	if unproven.LastSyncedAt != nil {
		t.Errorf("LastSyncedAt = %v, want nil for an unproven first write", unproven.LastSyncedAt)
	}
}

func TestMergeFarmerIdempotent(t *testing.T) {
	incoming := &Farmer{
		Address:       "0xab00000000000000000000000000000000000001",
		Name:          "Aye Min",
		Verified:      true,
		TotalReceived: decimal.RequireFromString("12.5"),
	}
	once := MergeFarmer(nil, incoming, SourceLedger, mergeNow)
	twice := MergeFarmer(once, incoming, SourceLedger, mergeNow)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second identical merge changed the row:\n once=%+v\ntwice=%+v", once, twice)
	}
}

func TestMergeFarmerVerifiedIsMonotonic(t *testing.T) {
	existing := &Farmer{Address: "0xab00000000000000000000000000000000000001", Verified: true}
	incoming := &Farmer{Address: existing.Address, Verified: false, Name: "renamed"}

	got := MergeFarmer(existing, incoming, SourceLedger, mergeNow)
	if !got.Verified {
		t.Error("ledger merge with verified=false downgraded the flag")
	}
	if got.Name != "renamed" {
		t.Errorf("Name = %q, want the incoming value", got.Name)
	}
}

func TestMergeFarmerKeepIfIncomingZero(t *testing.T) {
	existing := &Farmer{
		Address:  "0xab00000000000000000000000000000000000001",
		Name:     "Aye Min",
		Location: "Mandalay",
	}
	incoming := &Farmer{Address: existing.Address, Name: "", Location: "Bago"}

	got := MergeFarmer(existing, incoming, SourceProvenClaim, mergeNow)
	if got.Name != "Aye Min" {
		t.Errorf("Name = %q, zero incoming value must not erase data", got.Name)
	}
	if got.Location != "Bago" {
		t.Errorf("Location = %q, want the incoming value", got.Location)
	}
}

func TestMergeFarmerLedgerOverwritesTotalReceived(t *testing.T) {
	existing := &Farmer{
		Address:       "0xab00000000000000000000000000000000000001",
		TotalReceived: decimal.RequireFromString("99"),
	}
	incoming := &Farmer{Address: existing.Address} // zero TotalReceived

	fromLedger := MergeFarmer(existing, incoming, SourceLedger, mergeNow)
	if !fromLedger.TotalReceived.IsZero() {
		t.Errorf("TotalReceived = %s, ledger zero must overwrite", fromLedger.TotalReceived)
	}

	fromClaim := MergeFarmer(existing, incoming, SourceProvenClaim, mergeNow)
	if !fromClaim.TotalReceived.Equal(decimal.RequireFromString("99")) {
		t.Errorf("TotalReceived = %s, claim zero must not overwrite", fromClaim.TotalReceived)
	}
}

func TestMergeFarmerProvisionalLifecycle(t *testing.T) {
	// Created while the ledger was down, confirmed by a later sync.
	row := MergeFarmer(nil, &Farmer{Address: "0xab00000000000000000000000000000000000001"}, SourceUnprovenClaim, mergeNow)
	if !row.Provisional {
		t.Fatal("degraded write should be provisional")
	}

	later := mergeNow.Add(time.Hour)
	row = MergeFarmer(row, &Farmer{Address: row.Address, Verified: true}, SourceLedger, later)
	if row.Provisional {
		t.Error("ledger merge did not clear provisional")
	}
	if row.LastSyncedAt == nil || !row.LastSyncedAt.Equal(later) {
		t.Errorf("LastSyncedAt = %v, want %v", row.LastSyncedAt, later)
	}

	// A later unproven claim must not re-flag or rewind the row.
	row = MergeFarmer(row, &Farmer{Address: row.Address, Location: "Bago"}, SourceUnprovenClaim, later.Add(time.Hour))
	if row.Provisional {
		t.Error("unproven claim re-flagged a proven row")
	}
	if !row.LastSyncedAt.Equal(later) {
		t.Errorf("LastSyncedAt = %v, unproven claim must not move it", row.LastSyncedAt)
	}
}

func TestMergeSchemeActiveIsLedgerAuthoritative(t *testing.T) {
	existing := &Scheme{SchemeID: 7, Name: "Drought Relief", Active: true}

	deactivated := MergeScheme(existing, &Scheme{SchemeID: 7, Active: false}, SourceLedger, mergeNow)
	if deactivated.Active {
		t.Error("ledger deactivation was ignored")
	}

	claim := MergeScheme(existing, &Scheme{SchemeID: 7, Active: false}, SourceProvenClaim, mergeNow)
	if !claim.Active {
		t.Error("claim with zero Active deactivated the scheme")
	}
}

func TestMergeSchemeKeyImmutable(t *testing.T) {
	existing := &Scheme{ID: 3, SchemeID: 7, Name: "Drought Relief"}
	got := MergeScheme(existing, &Scheme{SchemeID: 9, Name: "Renamed"}, SourceLedger, mergeNow)
	if got.SchemeID != 7 || got.ID != 3 {
		t.Errorf("keys changed: ID=%d SchemeID=%d, want 3/7", got.ID, got.SchemeID)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want the incoming value", got.Name)
	}
}

func TestMergeSyncedAtNeverRewinds(t *testing.T) {
	later := mergeNow.Add(time.Hour)
	existing := &Farmer{Address: "0xab00000000000000000000000000000000000001", LastSyncedAt: &later}

	got := MergeFarmer(existing, &Farmer{Address: existing.Address}, SourceLedger, mergeNow)
	if !got.LastSyncedAt.Equal(later) {
		t.Errorf("LastSyncedAt = %v, want %v (monotonic)", got.LastSyncedAt, later)
	}
}
