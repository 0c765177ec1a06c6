package models

import (
	"time"
)

// TransactionType constants
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// WalletTransaction is the ledger of balance mutations. Every credit or
// debit applied to User.Balance writes one row in the same transaction.
type WalletTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	OrderNo     string    `gorm:"size:64;index" json:"order_no"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"` // credit, debit
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
}
