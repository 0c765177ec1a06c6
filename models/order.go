package models

import (
	"time"
)

// Order status codes. Paid and Closed are terminal for reconciliation:
// once an order reaches either, no automated path may change it again.
const (
	OrderStatusPending   = 0
	OrderStatusPaid      = 1
	OrderStatusClosed    = 2
	OrderStatusShipped   = 3
	OrderStatusCompleted = 4
	OrderStatusCancelled = 5
)

// Payment channel codes.
const (
	PayChannelUnknown = 0
	PayChannelWallet  = 1
	PayChannelAlipay  = 2
)

type Order struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderNo    string `gorm:"column:order_no;size:64;uniqueIndex;not null" json:"order_no"`
	UserID     uint   `gorm:"index" json:"user_id"`
	User       User   `gorm:"foreignKey:UserID" json:"-"`
	MerchantID uint   `json:"merchant_id"`
	ProductID  uint   `json:"product_id"`

	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`

	UnitPrice     float64 `json:"unit_price"`
	TotalAmount   float64 `json:"total_amount"`
	PayAmount     float64 `json:"pay_amount"`
	FreightAmount float64 `json:"freight_amount"`

	Status     int    `gorm:"column:order_status;index" json:"order_status"`
	PayChannel int    `gorm:"column:pay_channel;index" json:"pay_channel"`
	TradeNo    string `gorm:"size:64" json:"trade_no"` // gateway trade number

	PaidAt      *time.Time `gorm:"column:pay_time" json:"pay_time"`
	DeliveredAt *time.Time `gorm:"column:delivery_time" json:"delivery_time"`
	ReceivedAt  *time.Time `gorm:"column:receive_time" json:"receive_time"`
	ClosedAt    *time.Time `gorm:"column:close_time" json:"close_time"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Remark          string `json:"remark"`
	ReceiverName    string `json:"receiver_name"`
	ReceiverPhone   string `json:"receiver_phone"`
	ReceiverAddress string `json:"receiver_address"`
	DeliveryCompany string `json:"delivery_company"`
	TrackingNo      string `json:"tracking_no"`

	IsWalletRecharge bool `gorm:"default:false" json:"is_wallet_recharge"`
}

// IsTerminal reports whether the order status blocks further reconciliation.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusClosed
}

// OrderStatusText returns a human readable status label.
func OrderStatusText(status int) string {
	switch status {
	case OrderStatusPending:
		return "pending"
	case OrderStatusPaid:
		return "paid"
	case OrderStatusClosed:
		return "closed"
	case OrderStatusShipped:
		return "shipped"
	case OrderStatusCompleted:
		return "completed"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
