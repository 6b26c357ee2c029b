package chain

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	txHashPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// IsTxHash reports whether s is a well-formed 32-byte transaction reference.
func IsTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

// IsAddress reports whether s is a well-formed 20-byte account address.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress lower-cases an address for storage and comparison.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Log is one event entry attached to a confirmed transaction.
type Log struct {
	Address string
	Topics  []string
	Data    []byte
}

// Receipt is the committed outcome of one transaction.
type Receipt struct {
	TxHash      string
	Status      uint64 // 1 = success
	From        string
	To          string
	BlockNumber uint64
	Logs        []Log
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// FarmerState is the ledger's current view of a registered farmer.
type FarmerState struct {
	Name          string
	Location      string
	CropType      string
	FarmSize      int64
	Verified      bool
	Active        bool
	RegisteredAt  int64
	TotalReceived decimal.Decimal
}

// SchemeState is the ledger's current view of a subsidy scheme.
type SchemeState struct {
	Name                 string
	Description          string
	Amount               decimal.Decimal
	MaxBeneficiaries     int64
	CurrentBeneficiaries int64
	Active               bool
	Creator              string
	CreatedAt            int64
	ExpiryDate           int64
}

// Statistics are the program's aggregate counters.
type Statistics struct {
	TotalFarmers     int64
	TotalSchemes     int64
	TotalPayments    int64
	TotalDistributed decimal.Decimal
	ContractBalance  decimal.Decimal
}

// RegisteredEvent is one decoded FarmerRegistered ledger event.
type RegisteredEvent struct {
	Farmer      string
	Name        string
	Location    string
	TxHash      string
	BlockNumber uint64
}

// Gateway is the thin request wrapper around the distributed ledger.
// Every method may block on network I/O up to the configured timeout and
// surfaces ErrLedgerUnreachable after bounded internal retries. No caching:
// each call reflects the ledger's state at call time.
type Gateway interface {
	// FetchOutcome returns the receipt for txHash, or (nil, nil) when the
	// ledger does not know the transaction.
	FetchOutcome(ctx context.Context, txHash string) (*Receipt, error)
	Farmer(ctx context.Context, address string) (*FarmerState, error)
	Scheme(ctx context.Context, id int64) (*SchemeState, error)
	Statistics(ctx context.Context) (*Statistics, error)
	FarmerRegisteredEvents(ctx context.Context, fromBlock, toBlock uint64) ([]RegisteredEvent, error)
	BlockNumber(ctx context.Context) (uint64, error)
}
