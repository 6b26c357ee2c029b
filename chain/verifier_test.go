package chain

import (
	"context"
	"errors"
	"testing"
)

const (
	testProgram = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	goodTxHash  = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

type fakeGateway struct {
	receipt    *Receipt
	receiptErr error
	stats      *Statistics
	statsErr   error

	fetchCalls int
	statsCalls int
}

func (g *fakeGateway) FetchOutcome(ctx context.Context, txHash string) (*Receipt, error) {
	g.fetchCalls++
	return g.receipt, g.receiptErr
}

func (g *fakeGateway) Farmer(ctx context.Context, address string) (*FarmerState, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) Scheme(ctx context.Context, id int64) (*SchemeState, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) Statistics(ctx context.Context) (*Statistics, error) {
	g.statsCalls++
	return g.stats, g.statsErr
}

func (g *fakeGateway) FarmerRegisteredEvents(ctx context.Context, fromBlock, toBlock uint64) ([]RegisteredEvent, error) {
	return nil, nil
}

func (g *fakeGateway) BlockNumber(ctx context.Context) (uint64, error) {
	return 0, nil
}

func TestVerifyRejectsMalformedReferenceWithoutNetwork(t *testing.T) {
	gw := &fakeGateway{}
	v := NewVerifier(gw, testProgram)

	for _, ref := range []string{"", "abc", "0x1234", "0xZZ11111111111111111111111111111111111111111111111111111111111111"} {
		_, err := v.Verify(context.Background(), ref)
		if !errors.Is(err, ErrInvalidReference) {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidReference", ref, err)
		}
	}
	if gw.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0: format gate must run before any network call", gw.fetchCalls)
	}
}

func TestVerifyUnknownTransaction(t *testing.T) {
	v := NewVerifier(&fakeGateway{receipt: nil}, testProgram)
	_, err := v.Verify(context.Background(), goodTxHash)
	if !errors.Is(err, ErrTxNotFound) {
		t.Fatalf("err = %v, want ErrTxNotFound", err)
	}
}

func TestVerifyRevertedTransaction(t *testing.T) {
	gw := &fakeGateway{receipt: &Receipt{TxHash: goodTxHash, Status: 0, To: testProgram}}
	v := NewVerifier(gw, testProgram)
	_, err := v.Verify(context.Background(), goodTxHash)
	if !errors.Is(err, ErrTxReverted) {
		t.Fatalf("err = %v, want ErrTxReverted", err)
	}
}

func TestVerifyWrongTarget(t *testing.T) {
	gw := &fakeGateway{receipt: &Receipt{TxHash: goodTxHash, Status: 1, To: "0x000000000000000000000000000000000000dEaD"}}
	v := NewVerifier(gw, testProgram)
	_, err := v.Verify(context.Background(), goodTxHash)
	if !errors.Is(err, ErrWrongTarget) {
		t.Fatalf("err = %v, want ErrWrongTarget", err)
	}
}

func TestVerifyTargetComparisonIgnoresCase(t *testing.T) {
	gw := &fakeGateway{receipt: &Receipt{TxHash: goodTxHash, Status: 1, To: "0X5FBDB2315678AFECB367F032D93F642F64180AA3"}}
	v := NewVerifier(gw, testProgram)
	receipt, err := v.Verify(context.Background(), goodTxHash)
	if err != nil {
		t.Fatalf("Verify() err = %v", err)
	}
	if receipt == nil || receipt.Status != 1 {
		t.Fatalf("receipt = %+v, want confirmed", receipt)
	}
}

func TestVerifyGatewayFailureMapsToUnreachable(t *testing.T) {
	gw := &fakeGateway{receiptErr: errors.New("connection refused")}
	v := NewVerifier(gw, testProgram)
	_, err := v.Verify(context.Background(), goodTxHash)
	if !errors.Is(err, ErrLedgerUnreachable) {
		t.Fatalf("err = %v, want ErrLedgerUnreachable", err)
	}
}

func TestVerifyDoesNotDoubleWrapUnreachable(t *testing.T) {
	inner := unreachable(errors.New("dial tcp: timeout"))
	if got := unreachable(inner); !errors.Is(got, ErrLedgerUnreachable) || got != inner {
		t.Fatalf("unreachable(unreachable(err)) = %v, want the same error back", got)
	}
}
