package controllers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/payment"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
)

// NotificationVerifier authenticates inbound gateway callbacks.
type NotificationVerifier interface {
	Verify(values url.Values) bool
}

var (
	payClient   *payment.Client
	payVerifier NotificationVerifier
	payEngine   *payment.Engine
)

// InitPayment wires the payment subsystem into the handlers. Called once
// from main; tests inject their own pieces.
func InitPayment(client *payment.Client, verifier NotificationVerifier, engine *payment.Engine) {
	payClient = client
	payVerifier = verifier
	payEngine = engine
}

// Request types for payment initiation.
const (
	payRequestProduct        = 0
	payRequestWalletRecharge = 1
)

// InitiateAlipayPayment pre-records a pending order and returns the signed
// gateway request payload the client opens the pay flow with. reqtype 0 is
// a product purchase, reqtype 1 a wallet recharge.
func InitiateAlipayPayment(c *gin.Context) {
	utils.LogInfo("InitiateAlipayPayment called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req struct {
		ReqType   *int    `json:"reqtype" binding:"required"`
		ProductID uint    `json:"product_id"`
		Quantity  int     `json:"sumbuy"`
		Charge    float64 `json:"charge"`
		OrderNo   string  `json:"order_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. reqtype is required", err.Error())
		return
	}

	if payClient == nil || !payClient.Configured() {
		utils.LogError("Payment initiation attempted without gateway credentials")
		utils.InternalServerError(c, "Payment gateway is not configured", nil)
		return
	}

	orderReq := orderRequest{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		OrderNo:    req.OrderNo,
		Charge:     req.Charge,
		PayChannel: models.PayChannelAlipay,
	}

	var subject string
	switch *req.ReqType {
	case payRequestWalletRecharge:
		orderReq.WalletRecharge = true
		subject = "Wallet recharge"
	case payRequestProduct:
		var product models.Product
		if err := config.DB.First(&product, req.ProductID).Error; err != nil {
			utils.NotFound(c, fmt.Sprintf("Product %d not found", req.ProductID))
			return
		}
		subject = product.Name
	default:
		utils.BadRequest(c, "reqtype must be 0 (product) or 1 (wallet recharge)", nil)
		return
	}

	if err := orderReq.validate(); err != nil {
		utils.BadRequest(c, err.Error(), nil)
		return
	}

	// Pre-record the pending order under the merchant order number so the
	// webhook and poller can find it.
	order, err := createOrder(&user, &orderReq)
	if err != nil {
		utils.LogError("Failed to pre-record order for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create order", err.Error())
		return
	}

	passback := payment.Passback{
		Username:  user.Username,
		ProductID: strconv.FormatUint(uint64(order.ProductID), 10),
		Quantity:  order.Quantity,
		OrderNo:   order.OrderNo,
	}
	if orderReq.WalletRecharge {
		passback.Charge = req.Charge
	}

	payload, err := payClient.CreateTradeRequest(order.OrderNo, order.PayAmount, subject, passback)
	if err != nil {
		utils.LogError("Failed to build trade request for order %s: %v", order.OrderNo, err)
		utils.InternalServerError(c, "Failed to create gateway trade request", err.Error())
		return
	}

	utils.LogInfo("Alipay trade request built for order %s (user %d)", order.OrderNo, user.ID)
	c.JSON(200, gin.H{
		"success": true,
		"orderSn": order.OrderNo,
		"result":  payload,
		"message": "Alipay order created successfully",
	})
}

// QueryOrderStatus queries the gateway for one order and reconciles the
// local row against the answer.
func QueryOrderStatus(c *gin.Context) {
	utils.LogInfo("QueryOrderStatus called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	orderNo := c.Param("order_no")
	var order models.Order
	if err := config.DB.Where("order_no = ? AND user_id = ?", orderNo, user.ID).First(&order).Error; err != nil {
		utils.NotFound(c, "Order not found")
		return
	}

	if payClient == nil || !payClient.Configured() {
		utils.InternalServerError(c, "Payment gateway is not configured", nil)
		return
	}

	result, err := payClient.QueryTrade(c.Request.Context(), orderNo)
	if err != nil {
		// Timeout or transport failure: status unknown, no mutation.
		utils.LogError("Trade query for %s failed: %v", orderNo, err)
		utils.InternalServerError(c, "Gateway query failed", err.Error())
		return
	}

	response := gin.H{
		"order_id":     orderNo,
		"old_status":   order.Status,
		"gateway_code": result.Code,
	}
	if !result.Definitive {
		response["message"] = "Gateway returned no definitive status"
		utils.Success(c, "Order status queried", response)
		return
	}

	outcome, err := payEngine.Apply(orderNo, result.TradeStatus, payment.Notice{
		TradeNo: result.TradeNo,
		PaidAt:  result.PaidAt,
	})
	if err != nil {
		utils.LogError("Reconciliation of %s failed: %v", orderNo, err)
		utils.InternalServerError(c, "Failed to reconcile order", err.Error())
		return
	}

	response["trade_status"] = result.TradeStatus
	response["new_status"] = outcome.Status
	response["status_changed"] = outcome.Changed
	utils.Success(c, "Order status queried", response)
}

// SyncOrders re-queries the gateway for all of the user's Alipay orders
// and reconciles each one. Per-order failures are reported inline, not
// fatal to the batch.
func SyncOrders(c *gin.Context) {
	utils.LogInfo("SyncOrders called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var orders []models.Order
	if err := config.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		utils.LogError("Failed to list orders for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to list orders", err.Error())
		return
	}

	if payClient == nil || !payClient.Configured() {
		utils.InternalServerError(c, "Payment gateway is not configured", nil)
		return
	}

	results := make([]gin.H, 0, len(orders))
	updated := 0
	for _, order := range orders {
		if order.PayChannel != models.PayChannelAlipay {
			results = append(results, gin.H{
				"order_id": order.OrderNo,
				"status":   order.Status,
				"message":  "Not an Alipay order, skipped",
			})
			continue
		}

		entry := gin.H{"order_id": order.OrderNo, "old_status": order.Status}
		result, err := queryAndReconcile(c.Request.Context(), order.OrderNo)
		if err != nil {
			entry["error"] = err.Error()
			results = append(results, entry)
			continue
		}
		entry["gateway_code"] = result.code
		entry["trade_status"] = result.tradeStatus
		entry["new_status"] = result.status
		entry["status_changed"] = result.changed
		if result.changed {
			updated++
		}
		results = append(results, entry)
	}

	utils.Success(c, "Orders synchronized", gin.H{
		"username":       user.Username,
		"total_orders":   len(orders),
		"updated_orders": updated,
		"orders":         results,
	})
}

type syncResult struct {
	code        string
	tradeStatus string
	status      int
	changed     bool
}

func queryAndReconcile(ctx context.Context, orderNo string) (*syncResult, error) {
	result, err := payClient.QueryTrade(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	out := &syncResult{code: result.Code}
	if !result.Definitive {
		var order models.Order
		if err := config.DB.Where("order_no = ?", orderNo).First(&order).Error; err == nil {
			out.status = order.Status
		}
		return out, nil
	}

	outcome, err := payEngine.Apply(orderNo, result.TradeStatus, payment.Notice{
		TradeNo: result.TradeNo,
		PaidAt:  result.PaidAt,
	})
	if err != nil {
		return nil, err
	}
	out.tradeStatus = result.TradeStatus
	out.status = outcome.Status
	out.changed = outcome.Changed
	return out, nil
}
