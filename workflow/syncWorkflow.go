package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/agrichain/subsidy_backend/chain"
	"github.com/agrichain/subsidy_backend/models"
)

// Every use case here follows the same shape:
//
//	START -> VERIFYING -> {EXTRACTING -> PERSISTING -> DONE}
//	                   \-> DEGRADED -> PERSISTING(provisional) -> DONE
//	                   \-> REJECTED (terminal, nothing persisted)
//
// Caller errors (bad format, unknown/reverted/mistargeted tx) reject without
// touching the store. An unreachable ledger degrades: the claim is persisted
// provisional and reconciled by a later sync call.

// RegisterFarmer verifies the claimed registration transaction and persists
// the farmer record. Unreachable ledger still succeeds, provisionally.
func (e *Engine) RegisterFarmer(ctx context.Context, input *models.NewFarmer) (*RegisterResult, error) {
	if !chain.IsAddress(input.FarmerAddress) {
		return nil, fmt.Errorf("%w: %q", chain.ErrInvalidAddress, input.FarmerAddress)
	}
	address := models.NormalizeAddress(input.FarmerAddress)

	unlock, err := e.locks.Lock(ctx, "farmer:"+address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	source := models.SourceProvenClaim
	if _, err := e.verifier.Verify(ctx, input.TransactionHash); err != nil {
		if !isUnreachable(err) {
			return nil, err
		}
		e.log.WithField("tx", input.TransactionHash).Warn("ledger unreachable, registering farmer provisionally")
		source = models.SourceUnprovenClaim
	}

	farmer := &models.Farmer{
		Address:            address,
		Name:               input.Name,
		Location:           input.Location,
		CropType:           input.CropType,
		FarmSize:           input.FarmSize,
		RegisteredAt:       time.Now().Unix(),
		RegistrationTxHash: input.TransactionHash,
	}
	saved, err := e.store.UpsertFarmer(ctx, farmer, source)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{
		FarmerAddress:   saved.Address,
		TransactionHash: input.TransactionHash,
		Provisional:     saved.Provisional,
	}, nil
}

// VerifyFarmerInput is the verification claim.
type VerifyFarmerInput struct {
	FarmerAddress   string `json:"farmerAddress" binding:"required,chain_address"`
	TransactionHash string `json:"transactionHash" binding:"required,chain_txhash"`
}

// VerifyFarmer marks a farmer verified once the verification transaction is
// proven. The verified flag is monotonic and only a proven transaction sets
// it; when the ledger is unreachable the record stays unverified but the
// call still succeeds with provisional=true so the UI can surface it.
func (e *Engine) VerifyFarmer(ctx context.Context, input *VerifyFarmerInput) (*VerifyResult, error) {
	if !chain.IsAddress(input.FarmerAddress) {
		return nil, fmt.Errorf("%w: %q", chain.ErrInvalidAddress, input.FarmerAddress)
	}
	address := models.NormalizeAddress(input.FarmerAddress)

	unlock, err := e.locks.Lock(ctx, "farmer:"+address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := e.store.FindFarmer(ctx, address)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", ErrFarmerNotFound, address)
	}

	if _, err := e.verifier.Verify(ctx, input.TransactionHash); err != nil {
		if !isUnreachable(err) {
			return nil, err
		}
		// Cannot prove the verification now. Do not set the flag; keep the
		// record as-is and tell the caller it is pending.
		e.log.WithField("farmer", address).Warn("ledger unreachable, verification left pending")
		return &VerifyResult{FarmerAddress: address, Verified: existing.Verified, Provisional: true}, nil
	}

	saved, err := e.store.UpsertFarmer(ctx, &models.Farmer{Address: address, Verified: true}, models.SourceProvenClaim)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{FarmerAddress: saved.Address, Verified: saved.Verified, Provisional: saved.Provisional}, nil
}

// CreateScheme verifies the creation transaction, recovers the ledger-assigned
// scheme identifier (event, then counter, then synthetic) and persists the
// scheme. A synthetic identifier forces provisional=true regardless of the
// receipt, because the identifier itself is unproven.
func (e *Engine) CreateScheme(ctx context.Context, input *models.NewScheme) (*CreateSchemeResult, error) {
	if !chain.IsAddress(input.CreatorAddress) {
		return nil, fmt.Errorf("%w: %q", chain.ErrInvalidAddress, input.CreatorAddress)
	}

	source := models.SourceProvenClaim
	receipt, err := e.verifier.Verify(ctx, input.TransactionHash)
	if err != nil {
		if !isUnreachable(err) {
			return nil, err
		}
		e.log.WithField("tx", input.TransactionHash).Warn("ledger unreachable, creating scheme provisionally")
		source = models.SourceUnprovenClaim
		receipt = nil
	}

	extracted := e.extractor.ExtractSchemeID(ctx, receipt)
	if extracted.Provisional {
		source = models.SourceUnprovenClaim
	}

	unlock, err := e.locks.Lock(ctx, fmt.Sprintf("scheme:%d", extracted.SchemeID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	scheme := &models.Scheme{
		SchemeID:         extracted.SchemeID,
		Name:             input.Name,
		Description:      input.Description,
		Amount:           input.Amount,
		MaxBeneficiaries: input.MaxBeneficiaries,
		Active:           true,
		Creator:          models.NormalizeAddress(input.CreatorAddress),
		ExpiryDate:       input.ExpiryDate,
		TxHash:           input.TransactionHash,
	}
	saved, err := e.store.UpsertScheme(ctx, scheme, source)
	if err != nil {
		return nil, err
	}
	return &CreateSchemeResult{
		SchemeID:        saved.SchemeID,
		TransactionHash: input.TransactionHash,
		IDSource:        extracted.Source,
		Provisional:     saved.Provisional,
	}, nil
}

// RecordPayment appends one disbursement. Payments are append-only rows that
// must reference a proven transfer, so an unreachable ledger is surfaced to
// the caller for a later retry instead of degrading to a provisional row.
func (e *Engine) RecordPayment(ctx context.Context, input *models.NewPayment) (*models.Payment, error) {
	if !chain.IsAddress(input.FarmerAddress) {
		return nil, fmt.Errorf("%w: %q", chain.ErrInvalidAddress, input.FarmerAddress)
	}
	if _, err := e.verifier.Verify(ctx, input.TransactionHash); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		SchemeID:      input.SchemeID,
		FarmerAddress: models.NormalizeAddress(input.FarmerAddress),
		TxHash:        input.TransactionHash,
		Amount:        input.Amount,
		PaidAt:        time.Now().Unix(),
		Remarks:       input.Remarks,
		Approver:      models.NormalizeAddress(input.ApproverAddress),
	}
	if err := e.store.AppendPayment(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// SyncFarmer pulls the farmer's current ledger snapshot into the store.
// Ledger-authoritative merge; clears provisional. Idempotent.
func (e *Engine) SyncFarmer(ctx context.Context, address string) (*models.Farmer, error) {
	if !chain.IsAddress(address) {
		return nil, fmt.Errorf("%w: %q", chain.ErrInvalidAddress, address)
	}
	address = models.NormalizeAddress(address)

	state, err := e.gateway.Farmer(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chain.ErrLedgerUnreachable, err)
	}
	if state.Name == "" || !state.Active {
		return nil, fmt.Errorf("%w: farmer %s", ErrNotOnLedger, address)
	}

	unlock, err := e.locks.Lock(ctx, "farmer:"+address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	incoming := &models.Farmer{
		Address:       address,
		Name:          state.Name,
		Location:      state.Location,
		CropType:      state.CropType,
		FarmSize:      state.FarmSize,
		Verified:      state.Verified,
		RegisteredAt:  state.RegisteredAt,
		TotalReceived: state.TotalReceived,
	}
	return e.store.UpsertFarmer(ctx, incoming, models.SourceLedger)
}

// SyncScheme pulls the scheme's current ledger snapshot into the store.
// Negative ids are local synthetic placeholders; the ledger has never issued
// one, so asking it would silently query the absolute value instead.
func (e *Engine) SyncScheme(ctx context.Context, schemeID int64) (*models.Scheme, error) {
	if schemeID < 0 {
		return nil, fmt.Errorf("%w: %d is a local placeholder", chain.ErrInvalidSchemeID, schemeID)
	}
	state, err := e.gateway.Scheme(ctx, schemeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chain.ErrLedgerUnreachable, err)
	}
	if state.Name == "" || !state.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: scheme %d", ErrNotOnLedger, schemeID)
	}

	unlock, err := e.locks.Lock(ctx, fmt.Sprintf("scheme:%d", schemeID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	incoming := &models.Scheme{
		SchemeID:             schemeID,
		Name:                 state.Name,
		Description:          state.Description,
		Amount:               state.Amount,
		MaxBeneficiaries:     state.MaxBeneficiaries,
		CurrentBeneficiaries: state.CurrentBeneficiaries,
		Active:               state.Active,
		Creator:              state.Creator,
		ExpiryDate:           state.ExpiryDate,
	}
	return e.store.UpsertScheme(ctx, incoming, models.SourceLedger)
}

// Stats merges ledger statistics with local counts; the ledger side is
// zeroed, not fatal, when unreachable.
func (e *Engine) Stats(ctx context.Context) (*StatsResult, error) {
	result := &StatsResult{}

	if stats, err := e.gateway.Statistics(ctx); err == nil {
		result.Ledger = *stats
		result.RPCAvailable = true
	} else {
		e.log.WithError(err).Warn("ledger statistics unavailable")
	}

	counts, err := e.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	result.Local = counts
	return result, nil
}
