package workflow

import (
	"context"
	"errors"

	"github.com/agrichain/subsidy_backend/chain"
	"github.com/agrichain/subsidy_backend/models"
	"github.com/sirupsen/logrus"
)

// Local record lookups that don't resolve are caller errors, not degradation.
var (
	ErrFarmerNotFound = errors.New("farmer not found")
	ErrNotOnLedger    = errors.New("entity not found on ledger")
)

// Store is what the orchestrator needs from the local system of record.
// *models.Store satisfies it; tests use an in-memory fake.
type Store interface {
	FindFarmer(ctx context.Context, address string) (*models.Farmer, error)
	FindScheme(ctx context.Context, schemeID int64) (*models.Scheme, error)
	UpsertFarmer(ctx context.Context, incoming *models.Farmer, source models.MergeSource) (*models.Farmer, error)
	UpsertScheme(ctx context.Context, incoming *models.Scheme, source models.MergeSource) (*models.Scheme, error)
	AppendPayment(ctx context.Context, payment *models.Payment) error
	ListFarmers(ctx context.Context) ([]models.Farmer, error)
	ListSchemes(ctx context.Context) ([]models.Scheme, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	Counts(ctx context.Context) (models.Counts, error)
	CreateSyncRun(ctx context.Context, run *models.SyncRun) error
	FinishSyncRun(ctx context.Context, run *models.SyncRun) error
}

// Engine sequences verifier, extractor and store for every public use case.
// It is the only component that writes the store. It runs no timers of its
// own: unreachable-ledger conditions are retried by later explicit sync calls.
type Engine struct {
	store     Store
	gateway   chain.Gateway
	verifier  *chain.Verifier
	extractor *chain.Extractor
	locks     *KeyLocker
	log       *logrus.Logger
	scanFrom  uint64
}

func NewEngine(store Store, gateway chain.Gateway, verifier *chain.Verifier, extractor *chain.Extractor, locks *KeyLocker, log *logrus.Logger, scanFrom uint64) *Engine {
	return &Engine{
		store:     store,
		gateway:   gateway,
		verifier:  verifier,
		extractor: extractor,
		locks:     locks,
		log:       log,
		scanFrom:  scanFrom,
	}
}

// RegisterResult is the outcome of a farmer registration.
type RegisterResult struct {
	FarmerAddress   string `json:"farmerAddress"`
	TransactionHash string `json:"transactionHash"`
	Provisional     bool   `json:"provisional"`
}

// VerifyResult is the outcome of a farmer verification.
type VerifyResult struct {
	FarmerAddress string `json:"farmerAddress"`
	Verified      bool   `json:"verified"`
	Provisional   bool   `json:"provisional"`
}

// CreateSchemeResult is the outcome of a scheme creation.
type CreateSchemeResult struct {
	SchemeID        int64  `json:"schemeId"`
	TransactionHash string `json:"transactionHash"`
	IDSource        string `json:"idSource"`
	Provisional     bool   `json:"provisional"`
}

// AutoSyncResult summarizes one auto-sync pass.
type AutoSyncResult struct {
	RunID       string   `json:"runId"`
	TotalEvents int      `json:"totalEvents"`
	SyncedCount int      `json:"syncedCount"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors,omitempty"`
}

// StatsResult merges ledger statistics with store counts. The ledger side is
// best-effort and zeroed when unreachable.
type StatsResult struct {
	Ledger       chain.Statistics `json:"ledger"`
	Local        models.Counts    `json:"local"`
	RPCAvailable bool             `json:"rpcAvailable"`
}

// isUnreachable folds the degrade-don't-reject decision into one place.
func isUnreachable(err error) bool {
	return errors.Is(err, chain.ErrLedgerUnreachable)
}
