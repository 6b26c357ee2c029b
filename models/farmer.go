package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Farmer is the local record of one registered farmer. Natural key: the
// lower-cased ledger address; at most one row per normalized address.
type Farmer struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	Address            string          `gorm:"uniqueIndex;size:42;not null" json:"address"`
	Name               string          `gorm:"size:100;not null" json:"name"`
	Location           string          `gorm:"size:255" json:"location"`
	CropType           string          `gorm:"size:100" json:"crop_type"`
	FarmSize           int64           `gorm:"not null" json:"farm_size"`
	Verified           bool            `gorm:"not null;default:false" json:"is_verified"`
	RegisteredAt       int64           `json:"registered_at"`
	RegistrationTxHash string          `gorm:"size:66" json:"registration_tx_hash"`
	TotalReceived      decimal.Decimal `gorm:"type:decimal(30,18);default:0" json:"total_received"`
	Provisional        bool            `gorm:"not null;default:false" json:"provisional"`
	LastSyncedAt       *time.Time      `json:"last_synced_at"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewFarmer is the caller-supplied registration claim.
type NewFarmer struct {
	FarmerAddress   string `json:"farmerAddress" binding:"required,chain_address"`
	TransactionHash string `json:"transactionHash" binding:"required,chain_txhash"`
	Name            string `json:"name" binding:"required"`
	Location        string `json:"location" binding:"required"`
	CropType        string `json:"cropType" binding:"required"`
	FarmSize        int64  `json:"farmSize" binding:"required,gt=0"`
}

// NormalizeAddress lower-cases a ledger address for storage and comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
