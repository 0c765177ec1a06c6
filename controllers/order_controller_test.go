package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T, user models.User) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.MigrateModels(db))
	config.DB = db

	router := gin.New()
	authed := router.Group("")
	authed.Use(func(c *gin.Context) {
		var fresh models.User
		if err := db.Where("username = ?", user.Username).First(&fresh).Error; err == nil {
			c.Set("user", fresh)
		}
		c.Next()
	})
	authed.POST("/orders", CreateOrder)
	authed.POST("/orders/:order_no/purchase", PurchaseOrder)
	return router, db
}

func TestPurchaseOrderFromWallet(t *testing.T) {
	buyer := models.User{Username: "buyer", Password: "x", Balance: 100.00}
	router, db := setupOrderTest(t, buyer)
	require.NoError(t, db.Create(&buyer).Error)
	merchant := models.User{Username: "seller", Password: "x"}
	require.NoError(t, db.Create(&merchant).Error)

	order := models.Order{
		OrderNo:    "ORDER3333333333000001",
		UserID:     buyer.ID,
		MerchantID: merchant.ID,
		Quantity:   1,
		PayAmount:  30.00,
		Status:     models.OrderStatusPending,
	}
	require.NoError(t, db.Create(&order).Error)

	req := httptest.NewRequest(http.MethodPost, "/orders/ORDER3333333333000001/purchase", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var paid models.Order
	require.NoError(t, db.Where("order_no = ?", order.OrderNo).First(&paid).Error)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	assert.Equal(t, models.PayChannelWallet, paid.PayChannel)
	assert.NotNil(t, paid.PaidAt)

	var freshBuyer, freshMerchant models.User
	require.NoError(t, db.First(&freshBuyer, buyer.ID).Error)
	require.NoError(t, db.First(&freshMerchant, merchant.ID).Error)
	assert.Equal(t, 70.00, freshBuyer.Balance)
	assert.Equal(t, 30.00, freshMerchant.Balance)

	var ledger int64
	db.Model(&models.WalletTransaction{}).Where("order_no = ?", order.OrderNo).Count(&ledger)
	assert.Equal(t, int64(2), ledger)
}

func TestPurchaseOrderInsufficientBalance(t *testing.T) {
	buyer := models.User{Username: "buyer", Password: "x", Balance: 5.00}
	router, db := setupOrderTest(t, buyer)
	require.NoError(t, db.Create(&buyer).Error)
	merchant := models.User{Username: "seller", Password: "x"}
	require.NoError(t, db.Create(&merchant).Error)

	order := models.Order{
		OrderNo:    "ORDER3333333333000002",
		UserID:     buyer.ID,
		MerchantID: merchant.ID,
		Quantity:   1,
		PayAmount:  30.00,
		Status:     models.OrderStatusPending,
	}
	require.NoError(t, db.Create(&order).Error)

	req := httptest.NewRequest(http.MethodPost, "/orders/ORDER3333333333000002/purchase", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Nothing moved: order still pending, balances untouched.
	var fresh models.Order
	require.NoError(t, db.Where("order_no = ?", order.OrderNo).First(&fresh).Error)
	assert.Equal(t, models.OrderStatusPending, fresh.Status)

	var freshBuyer models.User
	require.NoError(t, db.First(&freshBuyer, buyer.ID).Error)
	assert.Equal(t, 5.00, freshBuyer.Balance)
}

func TestPurchaseOrderAlreadyPaid(t *testing.T) {
	buyer := models.User{Username: "buyer", Password: "x", Balance: 100.00}
	router, db := setupOrderTest(t, buyer)
	require.NoError(t, db.Create(&buyer).Error)

	order := models.Order{
		OrderNo:   "ORDER3333333333000003",
		UserID:    buyer.ID,
		Quantity:  1,
		PayAmount: 30.00,
		Status:    models.OrderStatusPaid,
	}
	require.NoError(t, db.Create(&order).Error)

	req := httptest.NewRequest(http.MethodPost, "/orders/ORDER3333333333000003/purchase", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var freshBuyer models.User
	require.NoError(t, db.First(&freshBuyer, buyer.ID).Error)
	assert.Equal(t, 100.00, freshBuyer.Balance)
}

func TestCreateOrderComputesAmounts(t *testing.T) {
	buyer := models.User{Username: "buyer", Password: "x"}
	router, db := setupOrderTest(t, buyer)
	require.NoError(t, db.Create(&buyer).Error)
	seller := models.User{Username: "seller", Password: "x"}
	require.NoError(t, db.Create(&seller).Error)

	product := models.Product{Name: "Widget", Price: 10.00, Discount: 0.9, Belong: "seller"}
	require.NoError(t, db.Create(&product).Error)

	body := `{"product_id":` + "1" + `,"sumbuy":2}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, db.Where("user_id = ?", buyer.ID).First(&order).Error)
	assert.Equal(t, 20.00, order.TotalAmount)
	assert.Equal(t, 18.00, order.PayAmount)
	assert.Equal(t, seller.ID, order.MerchantID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Regexp(t, `^ORDER\d{16}$`, order.OrderNo)
}
