package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scheme is the local record of one subsidy scheme. Natural key: the
// ledger-assigned scheme identifier, immutable once assigned. Synthetic
// (provisional) identifiers are negative and never collide with real ones.
type Scheme struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	SchemeID             int64           `gorm:"uniqueIndex;not null" json:"scheme_id"`
	Name                 string          `gorm:"size:255;not null" json:"name"`
	Description          string          `gorm:"type:text" json:"description"`
	Amount               decimal.Decimal `gorm:"type:decimal(30,18);default:0" json:"amount"`
	MaxBeneficiaries     int64           `gorm:"not null" json:"max_beneficiaries"`
	CurrentBeneficiaries int64           `gorm:"default:0" json:"current_beneficiaries"`
	Active               bool            `gorm:"not null;default:true" json:"is_active"`
	Creator              string          `gorm:"size:42" json:"creator"`
	ExpiryDate           int64           `json:"expiry_date"`
	TxHash               string          `gorm:"size:66" json:"transaction_hash"`
	Provisional          bool            `gorm:"not null;default:false" json:"provisional"`
	LastSyncedAt         *time.Time      `json:"last_synced_at"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewScheme is the caller-supplied scheme creation claim.
type NewScheme struct {
	CreatorAddress   string          `json:"creatorAddress" binding:"required,chain_address"`
	TransactionHash  string          `json:"transactionHash" binding:"required,chain_txhash"`
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	MaxBeneficiaries int64           `json:"maxBeneficiaries" binding:"required,gt=0"`
	ExpiryDate       int64           `json:"expiryDate" binding:"required"`
}
