package models

import (
	"reflect"
	"time"
)

// MergeSource says where an incoming record came from, which decides both
// field authority and whether the row can be considered proven.
type MergeSource int

const (
	// SourceLedger: a snapshot read straight from the ledger. Proven, and
	// ledger-authoritative fields overwrite even with zero values.
	SourceLedger MergeSource = iota
	// SourceProvenClaim: caller-supplied data backed by a confirmed receipt.
	SourceProvenClaim
	// SourceUnprovenClaim: caller-supplied data persisted while the ledger
	// was unreachable. The row stays (or becomes) provisional.
	SourceUnprovenClaim
)

// Proven reports whether obtaining this data required ledger proof.
func (s MergeSource) Proven() bool {
	return s != SourceUnprovenClaim
}

// FieldAuthority is the per-field merge rule. Fields not listed in a policy
// get KeepIfIncomingZero.
type FieldAuthority int

const (
	// KeepIfIncomingZero: incoming wins unless it is the zero value.
	KeepIfIncomingZero FieldAuthority = iota
	// LedgerAuthoritative: a ledger-sourced merge always wins, zero included;
	// other sources fall back to KeepIfIncomingZero.
	LedgerAuthoritative
	// MonotonicOr: boolean OR of existing and incoming; once true, never
	// reset by a later merge.
	MonotonicOr
	// Immutable: never touched by the generic merge (keys, bookkeeping).
	Immutable
)

// MergePolicy maps struct field names to their authority. Adding a new
// authoritative field to an entity is one line here.
type MergePolicy map[string]FieldAuthority

var farmerMergePolicy = MergePolicy{
	"ID":           Immutable,
	"Address":      Immutable,
	"CreatedAt":    Immutable,
	"UpdatedAt":    Immutable,
	"Provisional":  Immutable, // resolved from the merge source, below
	"LastSyncedAt": Immutable, // monotonic, set on proven merges

	"Verified":      MonotonicOr, // the ledger alone sets it true; nothing downgrades it
	"TotalReceived": LedgerAuthoritative,
}

var schemeMergePolicy = MergePolicy{
	"ID":           Immutable,
	"SchemeID":     Immutable, // natural key, immutable once assigned
	"CreatedAt":    Immutable,
	"UpdatedAt":    Immutable,
	"Provisional":  Immutable,
	"LastSyncedAt": Immutable,

	"Active":               LedgerAuthoritative,
	"CurrentBeneficiaries": LedgerAuthoritative,
}

// mergeByPolicy applies the policy field by field over every exported field
// of T. existing == nil means first write: the incoming record is taken as-is.
func mergeByPolicy[T any](existing, incoming *T, source MergeSource, policy MergePolicy) *T {
	if existing == nil {
		out := *incoming
		return &out
	}
	out := *existing
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(incoming).Elem()
	t := dst.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		switch policy[field.Name] {
		case Immutable:
			// keep existing
		case MonotonicOr:
			if field.Type.Kind() == reflect.Bool {
				dst.Field(i).SetBool(dst.Field(i).Bool() || src.Field(i).Bool())
			}
		case LedgerAuthoritative:
			if source == SourceLedger || !src.Field(i).IsZero() {
				dst.Field(i).Set(src.Field(i))
			}
		default: // KeepIfIncomingZero
			if !src.Field(i).IsZero() {
				dst.Field(i).Set(src.Field(i))
			}
		}
	}
	return &out
}

// mergeProvisional: proven sources clear the flag; an unproven claim never
// downgrades an already-proven row, and marks a new row provisional.
func mergeProvisional(existingProvisional *bool, source MergeSource) bool {
	if source.Proven() {
		return false
	}
	if existingProvisional != nil {
		return *existingProvisional
	}
	return true
}

// MergeFarmer merges an incoming farmer into the existing row (nil when the
// row does not exist yet). Pure function; idempotent for a fixed input.
func MergeFarmer(existing, incoming *Farmer, source MergeSource, now time.Time) *Farmer {
	out := mergeByPolicy(existing, incoming, source, farmerMergePolicy)
	out.Address = NormalizeAddress(out.Address)

	var existingProvisional *bool
	var existingSynced *time.Time
	if existing != nil {
		existingProvisional = &existing.Provisional
		existingSynced = existing.LastSyncedAt
	}
	out.Provisional = mergeProvisional(existingProvisional, source)
	out.LastSyncedAt = mergeSyncedAt(existingSynced, source, now)
	return out
}

// MergeScheme merges an incoming scheme into the existing row.
func MergeScheme(existing, incoming *Scheme, source MergeSource, now time.Time) *Scheme {
	out := mergeByPolicy(existing, incoming, source, schemeMergePolicy)
	out.Creator = NormalizeAddress(out.Creator)

	var existingProvisional *bool
	var existingSynced *time.Time
	if existing != nil {
		existingProvisional = &existing.Provisional
		existingSynced = existing.LastSyncedAt
	}
	out.Provisional = mergeProvisional(existingProvisional, source)
	out.LastSyncedAt = mergeSyncedAt(existingSynced, source, now)
	return out
}

// mergeSyncedAt keeps last_synced_at monotonically non-decreasing: proven
// merges stamp now, unproven claims keep whatever was there.
func mergeSyncedAt(existing *time.Time, source MergeSource, now time.Time) *time.Time {
	if !source.Proven() {
		return existing
	}
	if existing != nil && existing.After(now) {
		return existing
	}
	stamped := now
	return &stamped
}
