package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// ChainConfig carries everything the ledger gateway needs. Attempt count and
// timeout are configuration, not constants.
type ChainConfig struct {
	RPCURL         string
	ProgramAddress string // subsidy contract address, stored lower-cased
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	EventScanFrom  uint64 // first block of interest for event scans
}

// LoadChainConfig reads the ledger settings from the environment.
// Env:
// - BLOCKCHAIN_RPC_URL (required)
// - CONTRACT_ADDRESS   (required)
// - RPC_TIMEOUT_MS     (default 30000)
// - RPC_RETRY_ATTEMPTS (default 3)
// - EVENT_SCAN_FROM_BLOCK (default 0)
func LoadChainConfig() (ChainConfig, error) {
	cfg := ChainConfig{
		RPCURL:         strings.TrimSpace(os.Getenv("BLOCKCHAIN_RPC_URL")),
		ProgramAddress: strings.ToLower(strings.TrimSpace(os.Getenv("CONTRACT_ADDRESS"))),
		RequestTimeout: time.Duration(intFromEnv("RPC_TIMEOUT_MS", 30000)) * time.Millisecond,
		RetryAttempts:  intFromEnv("RPC_RETRY_ATTEMPTS", 3),
		RetryBaseDelay: 200 * time.Millisecond,
		EventScanFrom:  uint64(intFromEnv("EVENT_SCAN_FROM_BLOCK", 0)),
	}
	if cfg.RPCURL == "" {
		return cfg, errors.New("BLOCKCHAIN_RPC_URL is empty")
	}
	if cfg.ProgramAddress == "" {
		return cfg, errors.New("CONTRACT_ADDRESS is empty")
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return cfg, nil
}
