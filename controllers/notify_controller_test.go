package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/payment"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubVerifier struct{ ok bool }

func (s stubVerifier) Verify(values url.Values) bool { return s.ok }

func setupNotifyTest(t *testing.T, verifierAccepts bool) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.MigrateModels(db))
	config.DB = db

	InitPayment(nil, stubVerifier{ok: verifierAccepts}, payment.NewEngine(db))

	router := gin.New()
	router.POST("/notify/alipay", AlipayNotify)
	return router, db
}

func postNotification(router *gin.Engine, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/notify/alipay", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedPendingOrder(t *testing.T, db *gorm.DB, orderNo string) models.Order {
	t.Helper()
	user := models.User{Username: "alice-" + orderNo, Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	order := models.Order{
		OrderNo:   orderNo,
		UserID:    user.ID,
		Quantity:  1,
		PayAmount: 18.00,
		Status:    models.OrderStatusPending,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestAlipayNotifyAcceptsPayment(t *testing.T) {
	router, db := setupNotifyTest(t, true)
	seedPendingOrder(t, db, "ORDER2222222222000001")

	w := postNotification(router, url.Values{
		"app_id":       {"2021001234567890"},
		"out_trade_no": {"ORDER2222222222000001"},
		"trade_no":     {"2026030122001400001"},
		"trade_status": {"TRADE_SUCCESS"},
		"total_amount": {"18.00"},
		"gmt_payment":  {"2026-03-01 12:30:00"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())

	var order models.Order
	require.NoError(t, db.Where("order_no = ?", "ORDER2222222222000001").First(&order).Error)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "2026030122001400001", order.TradeNo)
	assert.NotNil(t, order.PaidAt)
}

func TestAlipayNotifyRejectsBadSignature(t *testing.T) {
	router, db := setupNotifyTest(t, false)
	seedPendingOrder(t, db, "ORDER2222222222000002")

	w := postNotification(router, url.Values{
		"out_trade_no": {"ORDER2222222222000002"},
		"trade_status": {"TRADE_SUCCESS"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "fail", w.Body.String())

	var order models.Order
	require.NoError(t, db.Where("order_no = ?", "ORDER2222222222000002").First(&order).Error)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestAlipayNotifyUnknownOrder(t *testing.T) {
	router, _ := setupNotifyTest(t, true)

	w := postNotification(router, url.Values{
		"out_trade_no": {"ORDER0000000000000000"},
		"trade_status": {"TRADE_SUCCESS"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "fail", w.Body.String())
}

func TestAlipayNotifyAcknowledgesIgnoredStatus(t *testing.T) {
	router, db := setupNotifyTest(t, true)
	seedPendingOrder(t, db, "ORDER2222222222000003")

	w := postNotification(router, url.Values{
		"out_trade_no": {"ORDER2222222222000003"},
		"trade_status": {"TRADE_PENDING_AWAIT"},
	})

	// Unhandled statuses are acknowledged so the gateway stops retrying.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())

	var order models.Order
	require.NoError(t, db.Where("order_no = ?", "ORDER2222222222000003").First(&order).Error)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestAlipayNotifyDuplicateDelivery(t *testing.T) {
	router, db := setupNotifyTest(t, true)
	seedPendingOrder(t, db, "ORDER2222222222000004")

	values := url.Values{
		"out_trade_no": {"ORDER2222222222000004"},
		"trade_no":     {"T-FIRST"},
		"trade_status": {"TRADE_SUCCESS"},
	}
	assert.Equal(t, "success", postNotification(router, values).Body.String())

	values.Set("trade_no", "T-SECOND")
	w := postNotification(router, values)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())

	var order models.Order
	require.NoError(t, db.Where("order_no = ?", "ORDER2222222222000004").First(&order).Error)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "T-FIRST", order.TradeNo)
}
