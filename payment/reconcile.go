package payment

import (
	"errors"
	"time"

	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when a notification or query references a
// merchant order number with no local order row.
var ErrOrderNotFound = errors.New("payment: order not found")

// Mailer sends the post-payment confirmation. Optional; failures are
// logged, never propagated.
type Mailer interface {
	SendPaymentConfirmation(to, orderNo string, amount float64) error
}

// Outcome describes what a reconciliation pass did to one order.
type Outcome struct {
	OrderNo        string  `json:"order_no"`
	PreviousStatus int     `json:"old_status"`
	Status         int     `json:"new_status"`
	Changed        bool    `json:"status_changed"`
	Credited       float64 `json:"credited,omitempty"`
}

// Notice carries the gateway-provided details that accompany a status.
type Notice struct {
	TradeNo  string
	PaidAt   *time.Time
	Amount   float64 // notified amount; 0 means fall back to the order's pay amount
}

// Engine is the single authoritative mapping from gateway trade status to
// local order status. The webhook handler, the scheduled poller and the
// authenticated sync endpoint all go through Apply, so idempotence lives
// in exactly one place.
type Engine struct {
	db     *gorm.DB
	mailer Mailer
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// SetMailer enables the fire-and-forget payment confirmation mail.
func (e *Engine) SetMailer(m Mailer) { e.mailer = m }

// MapTradeStatus maps a gateway trade status onto a local order status.
// ok is false for statuses the engine does not act on. TRADE_CLOSED maps
// to closed(2) everywhere; that is the canonical mapping.
func MapTradeStatus(tradeStatus string) (status int, ok bool) {
	switch tradeStatus {
	case TradeStatusSuccess, TradeStatusFinished:
		return models.OrderStatusPaid, true
	case TradeStatusClosed:
		return models.OrderStatusClosed, true
	case TradeStatusWaitBuyerPay:
		return models.OrderStatusPending, true
	default:
		return 0, false
	}
}

// Apply reconciles one order against a gateway trade status. The terminal
// guard is a conditional update (order_status must still be pending) run
// in the same transaction as the wallet credit, so concurrent webhook
// deliveries and poller ticks cannot double-credit or clobber a terminal
// state.
func (e *Engine) Apply(orderNo, tradeStatus string, notice Notice) (Outcome, error) {
	outcome := Outcome{OrderNo: orderNo}

	target, ok := MapTradeStatus(tradeStatus)
	if !ok {
		utils.LogInfo("Order %s: unhandled trade status %q, skipping", orderNo, tradeStatus)
		return outcome, nil
	}

	var paidUser *models.User
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		outcome.PreviousStatus = order.Status
		outcome.Status = order.Status

		if order.IsTerminal() {
			utils.LogInfo("Order %s already terminal (%s), skipping", orderNo, models.OrderStatusText(order.Status))
			return nil
		}
		if target == models.OrderStatusPending {
			// WAIT_BUYER_PAY: nothing to do, no timestamps set.
			return nil
		}

		updates := map[string]interface{}{
			"order_status": target,
			"updated_at":   time.Now(),
		}
		switch target {
		case models.OrderStatusPaid:
			paidAt := notice.PaidAt
			if paidAt == nil {
				now := time.Now()
				paidAt = &now
			}
			updates["pay_time"] = paidAt
			updates["pay_channel"] = models.PayChannelAlipay
			if notice.TradeNo != "" {
				updates["trade_no"] = notice.TradeNo
			}
		case models.OrderStatusClosed:
			updates["close_time"] = time.Now()
		}

		res := tx.Model(&models.Order{}).
			Where("order_no = ? AND order_status = ?", orderNo, models.OrderStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent reconciliation; treat as no-op.
			utils.LogInfo("Order %s finalized concurrently, skipping", orderNo)
			return nil
		}

		outcome.Status = target
		outcome.Changed = true

		if target == models.OrderStatusPaid && order.IsWalletRecharge {
			amount := notice.Amount
			if amount <= 0 {
				amount = order.PayAmount
			}
			if err := creditWallet(tx, order.UserID, order.OrderNo, amount); err != nil {
				return err
			}
			outcome.Credited = amount
		}

		if target == models.OrderStatusPaid && e.mailer != nil {
			var user models.User
			if err := tx.First(&user, order.UserID).Error; err == nil {
				paidUser = &user
			}
		}
		return nil
	})
	if err != nil {
		return outcome, err
	}

	if outcome.Changed && outcome.Status == models.OrderStatusPaid {
		utils.LogInfo("Order %s reconciled: %s -> paid", orderNo, models.OrderStatusText(outcome.PreviousStatus))
		e.notifyPaid(paidUser, orderNo)
	}
	return outcome, nil
}

// creditWallet credits the user balance and appends the ledger row. Runs
// inside the caller's transaction; the conditional status update above is
// what guarantees this happens at most once per order.
func creditWallet(tx *gorm.DB, userID uint, orderNo string, amount float64) error {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("payment: recharge user not found")
	}
	return tx.Create(&models.WalletTransaction{
		UserID:      userID,
		OrderNo:     orderNo,
		Amount:      amount,
		Type:        models.TransactionTypeCredit,
		Description: "Wallet recharge via Alipay",
		Reference:   "RECHARGE-" + orderNo,
	}).Error
}

func (e *Engine) notifyPaid(user *models.User, orderNo string) {
	if e.mailer == nil || user == nil || user.Email == "" {
		return
	}
	var order models.Order
	if err := e.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		return
	}
	go func() {
		if err := e.mailer.SendPaymentConfirmation(user.Email, orderNo, order.PayAmount); err != nil {
			utils.LogError("Payment confirmation mail for %s failed: %v", orderNo, err)
		}
	}()
}
