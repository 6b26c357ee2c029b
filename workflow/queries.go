package workflow

import (
	"context"
	"fmt"

	"github.com/agrichain/subsidy_backend/chain"
	"github.com/agrichain/subsidy_backend/models"
)

// Read-side accessors. These never touch the ledger: reads are served from
// the local system of record so the API stays available while the RPC
// endpoint is down.

func (e *Engine) Farmers(ctx context.Context) ([]models.Farmer, error) {
	return e.store.ListFarmers(ctx)
}

func (e *Engine) Schemes(ctx context.Context) ([]models.Scheme, error) {
	return e.store.ListSchemes(ctx)
}

func (e *Engine) Payments(ctx context.Context) ([]models.Payment, error) {
	return e.store.ListPayments(ctx)
}

func (e *Engine) FarmerByAddress(ctx context.Context, address string) (*models.Farmer, error) {
	if !chain.IsAddress(address) {
		return nil, fmt.Errorf("%w: %q", chain.ErrInvalidAddress, address)
	}
	farmer, err := e.store.FindFarmer(ctx, models.NormalizeAddress(address))
	if err != nil {
		return nil, err
	}
	if farmer == nil {
		return nil, fmt.Errorf("%w: %s", ErrFarmerNotFound, address)
	}
	return farmer, nil
}

func (e *Engine) SchemeByID(ctx context.Context, schemeID int64) (*models.Scheme, error) {
	scheme, err := e.store.FindScheme(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	if scheme == nil {
		return nil, fmt.Errorf("%w: scheme %d", ErrNotOnLedger, schemeID)
	}
	return scheme, nil
}

// LedgerBlockNumber exposes the current head for health checks.
func (e *Engine) LedgerBlockNumber(ctx context.Context) (uint64, error) {
	n, err := e.gateway.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", chain.ErrLedgerUnreachable, err)
	}
	return n, nil
}
