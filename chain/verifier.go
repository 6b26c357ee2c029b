package chain

import (
	"context"
	"errors"
	"fmt"
)

// Verifier validates a claimed transaction reference against policy.
//
// The checks run in a fixed order: format, existence, success, target. A
// failed check is the caller's problem and rejects the claim; a gateway
// failure at any step is mapped to ErrLedgerUnreachable instead, because not
// being able to consult the ledger proves nothing about the claim.
type Verifier struct {
	gateway Gateway
	program string
}

func NewVerifier(gateway Gateway, programAddress string) *Verifier {
	return &Verifier{
		gateway: gateway,
		program: NormalizeAddress(programAddress),
	}
}

// Verify resolves txRef to a confirmed receipt targeting the subsidy program.
// The format gate runs before any network call.
func (v *Verifier) Verify(ctx context.Context, txRef string) (*Receipt, error) {
	if !IsTxHash(txRef) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, txRef)
	}

	receipt, err := v.gateway.FetchOutcome(ctx, txRef)
	if err != nil {
		return nil, unreachable(err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txRef)
	}
	if !receipt.Succeeded() {
		return nil, fmt.Errorf("%w: %s", ErrTxReverted, txRef)
	}
	if NormalizeAddress(receipt.To) != v.program {
		return nil, fmt.Errorf("%w: tx targets %s, expected %s", ErrWrongTarget, receipt.To, v.program)
	}
	return receipt, nil
}

// Program returns the expected target address, lower-cased.
func (v *Verifier) Program() string {
	return v.program
}

// unreachable folds any gateway error into the degrade-don't-reject bucket.
func unreachable(err error) error {
	if errors.Is(err, ErrLedgerUnreachable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrLedgerUnreachable, err)
}
