package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agrichain/subsidy_backend/config"
)

func testChainConfig(url string) config.ChainConfig {
	return config.ChainConfig{
		RPCURL:         url,
		ProgramAddress: testProgram,
		RequestTimeout: 2 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	}
}

func rpcResult(t *testing.T, w http.ResponseWriter, result any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": result}); err != nil {
		t.Fatalf("encode rpc result: %v", err)
	}
}

func TestFetchOutcomeDecodesReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "eth_getTransactionReceipt" {
			t.Errorf("method = %q", req.Method)
		}
		rpcResult(t, w, map[string]any{
			"transactionHash": goodTxHash,
			"status":          "0x1",
			"from":            "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
			"to":              testProgram,
			"blockNumber":     "0x2a",
			"logs": []map[string]any{
				{
					"address": testProgram,
					"topics":  []string{eventTopic(sigFarmerRegistered)},
					"data":    "0x00",
				},
			},
		})
	}))
	defer srv.Close()

	g := NewGateway(testChainConfig(srv.URL), quietLogger())
	receipt, err := g.FetchOutcome(context.Background(), goodTxHash)
	if err != nil {
		t.Fatalf("FetchOutcome() err = %v", err)
	}
	if !receipt.Succeeded() {
		t.Error("Succeeded() = false for status 0x1")
	}
	if receipt.BlockNumber != 42 {
		t.Errorf("BlockNumber = %d, want 42", receipt.BlockNumber)
	}
	if receipt.To != NormalizeAddress(testProgram) {
		t.Errorf("To = %q, want normalized program address", receipt.To)
	}
	if len(receipt.Logs) != 1 || len(receipt.Logs[0].Data) != 1 {
		t.Errorf("Logs = %+v", receipt.Logs)
	}
}

func TestFetchOutcomeUnknownTxIsNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rpcResult(t, w, nil)
	}))
	defer srv.Close()

	g := NewGateway(testChainConfig(srv.URL), quietLogger())
	receipt, err := g.FetchOutcome(context.Background(), goodTxHash)
	if err != nil {
		t.Fatalf("FetchOutcome() err = %v", err)
	}
	if receipt != nil {
		t.Fatalf("receipt = %+v, want nil for an unknown transaction", receipt)
	}
}

func TestRPCClientRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		rpcResult(t, w, "0x10")
	}))
	defer srv.Close()

	g := NewGateway(testChainConfig(srv.URL), quietLogger())
	n, err := g.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber() err = %v", err)
	}
	if n != 16 {
		t.Errorf("BlockNumber() = %d, want 16", n)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestRPCClientExhaustedRetriesAreUnreachable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGateway(testChainConfig(srv.URL), quietLogger())
	_, err := g.BlockNumber(context.Background())
	if !errors.Is(err, ErrLedgerUnreachable) {
		t.Fatalf("err = %v, want ErrLedgerUnreachable", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want the configured 3 attempts", got)
	}
}

func TestStatisticsDecodesCounters(t *testing.T) {
	var words []byte
	for _, n := range []int64{12, 8, 30, 0, 0} {
		words = append(words, padWord(uintWord(n))...)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "eth_call" {
			t.Errorf("method = %q", req.Method)
		}
		rpcResult(t, w, fmt.Sprintf("0x%x", words))
	}))
	defer srv.Close()

	g := NewGateway(testChainConfig(srv.URL), quietLogger())
	stats, err := g.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics() err = %v", err)
	}
	if stats.TotalFarmers != 12 || stats.TotalSchemes != 8 || stats.TotalPayments != 30 {
		t.Errorf("stats = %+v", stats)
	}
}
