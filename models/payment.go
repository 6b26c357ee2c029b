package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one subsidy disbursement. Append-only: there is no update path.
// Natural key: scheme id + farmer address + transaction hash, so replaying
// the same confirmed transfer is a no-op.
type Payment struct {
	ID            int             `gorm:"primary_key" json:"id"`
	SchemeID      int64           `gorm:"uniqueIndex:idx_payment_natural,priority:1;not null" json:"scheme_id"`
	FarmerAddress string          `gorm:"uniqueIndex:idx_payment_natural,priority:2;size:42;not null" json:"farmer_address"`
	TxHash        string          `gorm:"uniqueIndex:idx_payment_natural,priority:3;size:66;not null" json:"transaction_hash"`
	Amount        decimal.Decimal `gorm:"type:decimal(30,18);default:0" json:"amount"`
	PaidAt        int64           `json:"paid_at"`
	Remarks       string          `gorm:"type:text" json:"remarks"`
	Approver      string          `gorm:"size:42" json:"approver"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// NewPayment is the caller-supplied disbursement claim.
type NewPayment struct {
	SchemeID        int64           `json:"schemeId" binding:"required"`
	FarmerAddress   string          `json:"farmerAddress" binding:"required,chain_address"`
	TransactionHash string          `json:"transactionHash" binding:"required,chain_txhash"`
	Amount          decimal.Decimal `json:"amount"`
	Remarks         string          `json:"remarks"`
	ApproverAddress string          `json:"approverAddress" binding:"omitempty,chain_address"`
}
