package chain

import "errors"

// Verification outcomes that reject the caller's claim. These are typed
// values the orchestrator branches on, not failures.
var (
	ErrInvalidReference = errors.New("invalid transaction reference format")
	ErrInvalidAddress   = errors.New("invalid ledger address format")
	ErrInvalidSchemeID  = errors.New("scheme id was never assigned by the ledger")
	ErrTxNotFound       = errors.New("transaction not found on ledger")
	ErrTxReverted       = errors.New("transaction failed on ledger")
	ErrWrongTarget      = errors.New("transaction is not for the subsidy program")
)

// ErrLedgerUnreachable means the ledger could not currently be consulted.
// Absence of proof is not proof of absence: callers must degrade or retry,
// never treat this as a rejection.
var ErrLedgerUnreachable = errors.New("ledger unreachable")
