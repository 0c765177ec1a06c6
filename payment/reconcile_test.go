package payment

import (
	"testing"
	"time"

	"github.com/Haoran-716/MallSphere/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPendingToPaid(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	seedOrder(t, db, models.Order{
		OrderNo:   "ORDER1234567890000001",
		UserID:    user.ID,
		Status:    models.OrderStatusPending,
		PayAmount: 18.00,
	})

	engine := NewEngine(db)
	paidAt := time.Date(2026, 3, 1, 12, 30, 0, 0, time.Local)
	outcome, err := engine.Apply("ORDER1234567890000001", TradeStatusSuccess, Notice{
		TradeNo: "2026030122001400001",
		PaidAt:  &paidAt,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, models.OrderStatusPending, outcome.PreviousStatus)
	assert.Equal(t, models.OrderStatusPaid, outcome.Status)

	order := reloadOrder(t, db, "ORDER1234567890000001")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, models.PayChannelAlipay, order.PayChannel)
	assert.Equal(t, "2026030122001400001", order.TradeNo)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, paidAt.Unix(), order.PaidAt.Unix())
}

func TestApplyTradeFinishedAlsoPays(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	seedOrder(t, db, models.Order{
		OrderNo: "ORDER1234567890000002",
		UserID:  user.ID,
		Status:  models.OrderStatusPending,
	})

	outcome, err := NewEngine(db).Apply("ORDER1234567890000002", TradeStatusFinished, Notice{})
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, models.OrderStatusPaid, reloadOrder(t, db, "ORDER1234567890000002").Status)
}

func TestApplyIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	seedOrder(t, db, models.Order{
		OrderNo: "ORDER1234567890000003",
		UserID:  user.ID,
		Status:  models.OrderStatusPending,
	})

	engine := NewEngine(db)
	first, err := engine.Apply("ORDER1234567890000003", TradeStatusSuccess, Notice{TradeNo: "T1"})
	require.NoError(t, err)
	assert.True(t, first.Changed)

	second, err := engine.Apply("ORDER1234567890000003", TradeStatusSuccess, Notice{TradeNo: "T2"})
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, models.OrderStatusPaid, second.Status)

	// The duplicate delivery must not overwrite the recorded trade number.
	assert.Equal(t, "T1", reloadOrder(t, db, "ORDER1234567890000003").TradeNo)
}

func TestApplyWalletRechargeCreditsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 5.00)
	seedOrder(t, db, models.Order{
		OrderNo:          "ORDER1234567890000004",
		UserID:           user.ID,
		ProductID:        models.WalletRechargeProductID,
		PayAmount:        100.00,
		Status:           models.OrderStatusPending,
		IsWalletRecharge: true,
	})

	engine := NewEngine(db)
	outcome, err := engine.Apply("ORDER1234567890000004", TradeStatusSuccess, Notice{Amount: 100.00})
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, 100.00, outcome.Credited)

	// Duplicate notification: no second credit.
	outcome, err = engine.Apply("ORDER1234567890000004", TradeStatusSuccess, Notice{Amount: 100.00})
	require.NoError(t, err)
	assert.False(t, outcome.Changed)
	assert.Zero(t, outcome.Credited)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, 105.00, fresh.Balance)

	var count int64
	db.Model(&models.WalletTransaction{}).Where("order_no = ?", "ORDER1234567890000004").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestApplyWalletRechargeFallsBackToOrderAmount(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	seedOrder(t, db, models.Order{
		OrderNo:          "ORDER1234567890000005",
		UserID:           user.ID,
		PayAmount:        50.00,
		Status:           models.OrderStatusPending,
		IsWalletRecharge: true,
	})

	outcome, err := NewEngine(db).Apply("ORDER1234567890000005", TradeStatusSuccess, Notice{})
	require.NoError(t, err)
	assert.Equal(t, 50.00, outcome.Credited)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, 50.00, fresh.Balance)
}

func TestApplyWaitBuyerPayLeavesOrderAlone(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	seedOrder(t, db, models.Order{
		OrderNo: "ORDER1234567890000006",
		UserID:  user.ID,
		Status:  models.OrderStatusPending,
	})

	outcome, err := NewEngine(db).Apply("ORDER1234567890000006", TradeStatusWaitBuyerPay, Notice{})
	require.NoError(t, err)
	assert.False(t, outcome.Changed)

	order := reloadOrder(t, db, "ORDER1234567890000006")
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Nil(t, order.PaidAt)
	assert.Empty(t, order.TradeNo)
}

func TestApplyClosedSetsCloseTime(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	seedOrder(t, db, models.Order{
		OrderNo: "ORDER1234567890000007",
		UserID:  user.ID,
		Status:  models.OrderStatusPending,
	})

	outcome, err := NewEngine(db).Apply("ORDER1234567890000007", TradeStatusClosed, Notice{})
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, models.OrderStatusClosed, outcome.Status)

	order := reloadOrder(t, db, "ORDER1234567890000007")
	assert.Equal(t, models.OrderStatusClosed, order.Status)
	assert.NotNil(t, order.ClosedAt)
	assert.Nil(t, order.PaidAt)
}

func TestApplyUnknownTradeStatusIsSkipped(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	seedOrder(t, db, models.Order{
		OrderNo: "ORDER1234567890000008",
		UserID:  user.ID,
		Status:  models.OrderStatusPending,
	})

	outcome, err := NewEngine(db).Apply("ORDER1234567890000008", "TRADE_PENDING_AWAIT", Notice{})
	require.NoError(t, err)
	assert.False(t, outcome.Changed)
	assert.Equal(t, models.OrderStatusPending, reloadOrder(t, db, "ORDER1234567890000008").Status)
}

func TestApplyTerminalOrderIsNeverReopened(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 0)
	paidAt := time.Now()
	seedOrder(t, db, models.Order{
		OrderNo: "ORDER1234567890000009",
		UserID:  user.ID,
		Status:  models.OrderStatusPaid,
		TradeNo: "T-ORIG",
		PaidAt:  &paidAt,
	})

	// A late TRADE_CLOSED must not demote a paid order.
	outcome, err := NewEngine(db).Apply("ORDER1234567890000009", TradeStatusClosed, Notice{})
	require.NoError(t, err)
	assert.False(t, outcome.Changed)

	order := reloadOrder(t, db, "ORDER1234567890000009")
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "T-ORIG", order.TradeNo)
}

func TestApplyUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	_, err := NewEngine(db).Apply("ORDER0000000000000000", TradeStatusSuccess, Notice{})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMapTradeStatus(t *testing.T) {
	cases := []struct {
		tradeStatus string
		want        int
		ok          bool
	}{
		{TradeStatusSuccess, models.OrderStatusPaid, true},
		{TradeStatusFinished, models.OrderStatusPaid, true},
		{TradeStatusClosed, models.OrderStatusClosed, true},
		{TradeStatusWaitBuyerPay, models.OrderStatusPending, true},
		{"SOMETHING_ELSE", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := MapTradeStatus(tc.tradeStatus)
		assert.Equal(t, tc.ok, ok, tc.tradeStatus)
		if ok {
			assert.Equal(t, tc.want, got, tc.tradeStatus)
		}
	}
}
