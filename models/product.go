package models

import (
	"time"
)

// WalletRechargeProductID is the reserved product id used on wallet
// recharge orders. No real product row exists for it.
const WalletRechargeProductID = 9999

type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Price         float64   `json:"price"`
	Discount      float64   `gorm:"default:1" json:"discount"` // fraction, 0.9 = 10% off
	Detail        string    `gorm:"type:text" json:"detail"`
	Features      string    `json:"features"`
	Comment       string    `json:"comment"`
	Belong        string    `gorm:"index" json:"belong"` // seller username
	PurchaseCount int       `gorm:"default:0" json:"purchase_count"`
	Image         []byte    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
