package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// orderRequest is the shared shape for order creation: either a product
// purchase (ProductID set) or a wallet recharge (WalletRecharge with a
// Charge amount). OrderNo may be supplied so that the payment flow can
// pre-record an order under the gateway's merchant order number.
type orderRequest struct {
	ProductID      uint    `json:"product_id"`
	Quantity       int     `json:"sumbuy"`
	OrderNo        string  `json:"order_id"`
	WalletRecharge bool    `json:"is_wallet_recharge"`
	Charge         float64 `json:"charge"`
	PayChannel     int     `json:"pay_type"`
	Remark         string  `json:"remark"`
}

func (r *orderRequest) validate() error {
	if r.Quantity == 0 {
		r.Quantity = 1
	}
	if r.Quantity < 1 {
		return errors.New("quantity must be a positive integer")
	}
	if r.WalletRecharge {
		if r.Charge < 0.01 {
			return errors.New("charge must be at least 0.01")
		}
	} else if r.ProductID == 0 {
		return errors.New("product_id is required")
	}
	return nil
}

// createOrder inserts a pending order row for the given user. Amounts are
// computed here, once, and never recomputed by reconciliation.
func createOrder(user *models.User, req *orderRequest) (*models.Order, error) {
	var (
		productID   uint
		productName string
		unitPrice   float64
		discount    float64
		merchant    models.User
		remark      = req.Remark
	)

	if req.WalletRecharge {
		productID = models.WalletRechargeProductID
		productName = "Wallet recharge"
		unitPrice = req.Charge
		discount = 1.0
		req.Quantity = 1
		if remark == "" {
			remark = "Wallet recharge"
		}
		if err := config.DB.Where("username = ?", "admin").First(&merchant).Error; err != nil {
			return nil, errors.New("merchant account not found")
		}
	} else {
		var product models.Product
		if err := config.DB.First(&product, req.ProductID).Error; err != nil {
			return nil, errors.New("product not found")
		}
		productID = product.ID
		productName = product.Name
		unitPrice = product.Price
		discount = product.Discount
		if err := config.DB.Where("username = ?", product.Belong).First(&merchant).Error; err != nil {
			return nil, errors.New("merchant account not found")
		}
	}

	total, pay := utils.CalcOrderAmounts(unitPrice, req.Quantity, discount)

	orderNo := req.OrderNo
	if orderNo == "" {
		orderNo = utils.GenerateOrderNumber()
	}

	receiverName := user.RealName
	if receiverName == "" {
		receiverName = user.Username
	}

	order := models.Order{
		OrderNo:          orderNo,
		UserID:           user.ID,
		MerchantID:       merchant.ID,
		ProductID:        productID,
		ProductName:      productName,
		Quantity:         req.Quantity,
		UnitPrice:        unitPrice,
		TotalAmount:      total,
		PayAmount:        pay,
		Status:           models.OrderStatusPending,
		PayChannel:       req.PayChannel,
		Remark:           remark,
		ReceiverName:     receiverName,
		ReceiverPhone:    user.Phone,
		ReceiverAddress:  user.Address,
		IsWalletRecharge: req.WalletRecharge,
	}
	if err := config.DB.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder places a pending order without initiating a payment.
func CreateOrder(c *gin.Context) {
	utils.LogInfo("CreateOrder called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}
	if err := req.validate(); err != nil {
		utils.BadRequest(c, err.Error(), nil)
		return
	}

	order, err := createOrder(&user, &req)
	if err != nil {
		utils.LogError("Order creation failed for user %d: %v", user.ID, err)
		utils.BadRequest(c, err.Error(), nil)
		return
	}

	utils.LogInfo("Order %s created for user %d", order.OrderNo, user.ID)
	c.JSON(201, gin.H{
		"success":  true,
		"order_id": order.OrderNo,
		"message":  "Order created successfully",
	})
}

// PurchaseOrder pays a pending order from the wallet balance: debit the
// buyer, credit the merchant and finalize the order in one transaction.
func PurchaseOrder(c *gin.Context) {
	utils.LogInfo("PurchaseOrder called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	orderNo := c.Param("order_no")
	if orderNo == "" {
		var req struct {
			OrderNo string `json:"order_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request. order_id is required", err.Error())
			return
		}
		orderNo = req.OrderNo
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("order_no = ? AND user_id = ?", orderNo, user.ID).First(&order).Error; err != nil {
			return errors.New("order not found")
		}
		if order.Status != models.OrderStatusPending {
			return fmt.Errorf("order is %s, cannot be paid", models.OrderStatusText(order.Status))
		}

		// Conditional debit: the balance check and the write are one
		// statement, so a concurrent purchase cannot overdraw.
		debitRes := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", order.UserID, order.PayAmount).
			Update("balance", gorm.Expr("balance - ?", order.PayAmount))
		if debitRes.Error != nil {
			return debitRes.Error
		}
		if debitRes.RowsAffected == 0 {
			return errors.New("insufficient balance")
		}
		if err := tx.Model(&models.User{}).Where("id = ?", order.MerchantID).
			Update("balance", gorm.Expr("balance + ?", order.PayAmount)).Error; err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Order{}).
			Where("order_no = ? AND order_status = ?", order.OrderNo, models.OrderStatusPending).
			Updates(map[string]interface{}{
				"order_status": models.OrderStatusPaid,
				"pay_channel":  models.PayChannelWallet,
				"pay_time":     now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("order was finalized concurrently")
		}

		debit := models.WalletTransaction{
			UserID:      order.UserID,
			OrderNo:     order.OrderNo,
			Amount:      order.PayAmount,
			Type:        models.TransactionTypeDebit,
			Description: "Order payment from wallet",
			Reference:   "PAY-" + order.OrderNo,
		}
		credit := models.WalletTransaction{
			UserID:      order.MerchantID,
			OrderNo:     order.OrderNo,
			Amount:      order.PayAmount,
			Type:        models.TransactionTypeCredit,
			Description: "Order payment received",
			Reference:   "RECV-" + order.OrderNo,
		}
		if err := tx.Create(&debit).Error; err != nil {
			return err
		}
		return tx.Create(&credit).Error
	})
	if err != nil {
		utils.LogError("Wallet purchase of %s failed for user %d: %v", orderNo, user.ID, err)
		utils.BadRequest(c, err.Error(), nil)
		return
	}

	utils.LogInfo("Order %s paid from wallet by user %d", orderNo, user.ID)
	utils.Success(c, "Payment successful, order completed", gin.H{
		"order_id": orderNo,
	})
}

// GetOrderDetail returns one of the user's orders.
func GetOrderDetail(c *gin.Context) {
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

	utils.Success(c, "Order retrieved successfully", gin.H{"order": order})
}

// ListOrders returns the user's orders, newest first.
func ListOrders(c *gin.Context) {
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

	utils.Success(c, "Orders retrieved successfully", gin.H{"orders": orders})
}

// DestroyOrder deletes one of the user's orders.
func DestroyOrder(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	orderNo := c.Param("order_no")
	res := config.DB.Where("order_no = ? AND user_id = ?", orderNo, user.ID).Delete(&models.Order{})
	if res.Error != nil {
		utils.LogError("Failed to destroy order %s: %v", orderNo, res.Error)
		utils.InternalServerError(c, "Failed to destroy order", res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.NotFound(c, "Order not found or already deleted")
		return
	}

	utils.LogInfo("Order %s destroyed by user %d", orderNo, user.ID)
	utils.Success(c, "Order destroyed", gin.H{"order_id": orderNo})
}
