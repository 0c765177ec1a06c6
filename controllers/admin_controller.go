package controllers

import (
	"strconv"
	"time"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
)

// ListUsers handles user listing with search and pagination
func ListUsers(c *gin.Context) {
	utils.LogInfo("ListUsers called")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	search := c.Query("search")
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := config.DB.Model(&models.User{})
	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error; err != nil {
		utils.LogError("Failed to fetch users: %v", err)
		utils.InternalServerError(c, "Failed to fetch users", err.Error())
		return
	}

	list := make([]gin.H, 0, len(users))
	for _, u := range users {
		list = append(list, gin.H{
			"id":         u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"phone":      u.Phone,
			"balance":    u.Balance,
			"is_admin":   u.IsAdmin,
			"is_blocked": u.IsBlocked,
			"created_at": u.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	utils.Success(c, "Users retrieved successfully", gin.H{
		"users": list,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// BlockUser toggles a user's blocked flag. Blocked users fail auth on the
// next request; existing tokens are not revoked.
func BlockUser(c *gin.Context) {
	utils.LogInfo("BlockUser called")

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID", nil)
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}
	if user.IsAdmin {
		utils.Forbidden(c, "Cannot block an admin account")
		return
	}

	user.IsBlocked = !user.IsBlocked
	if err := config.DB.Model(&user).Update("is_blocked", user.IsBlocked).Error; err != nil {
		utils.LogError("Failed to update user %d block status: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to update user", err.Error())
		return
	}

	action := "unblocked"
	if user.IsBlocked {
		action = "blocked"
	}
	utils.LogInfo("User %s (%d) %s", user.Username, user.ID, action)
	utils.Success(c, "User "+action+" successfully", gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"is_blocked": user.IsBlocked,
	})
}

type shippingUpdateRequest struct {
	DeliveryCompany *string `json:"delivery_company"`
	TrackingNo      *string `json:"tracking_no"`
}

// UpdateOrderShipping marks a paid order as shipped and records the
// carrier details. Absent fields are left unchanged.
func UpdateOrderShipping(c *gin.Context) {
	utils.LogInfo("UpdateOrderShipping called")

	orderNo := c.Param("order_no")
	var req shippingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request format", err.Error())
		return
	}

	var order models.Order
	if err := config.DB.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		utils.NotFound(c, "Order not found")
		return
	}
	if order.Status != models.OrderStatusPaid {
		utils.BadRequest(c, "Only paid orders can be shipped", gin.H{
			"current_status": models.OrderStatusText(order.Status),
		})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"order_status":  models.OrderStatusShipped,
		"delivery_time": now,
		"updated_at":    now,
	}
	if req.DeliveryCompany != nil {
		updates["delivery_company"] = *req.DeliveryCompany
	}
	if req.TrackingNo != nil {
		updates["tracking_no"] = *req.TrackingNo
	}

	if err := config.DB.Model(&models.Order{}).
		Where("order_no = ? AND order_status = ?", orderNo, models.OrderStatusPaid).
		Updates(updates).Error; err != nil {
		utils.LogError("Failed to update shipping for order %s: %v", orderNo, err)
		utils.InternalServerError(c, "Failed to update order", err.Error())
		return
	}

	utils.LogInfo("Order %s marked as shipped", orderNo)
	utils.Success(c, "Order marked as shipped", gin.H{
		"order_id":   orderNo,
		"new_status": models.OrderStatusShipped,
	})
}

// ConfirmOrderReceived lets the buyer move a shipped order to completed.
func ConfirmOrderReceived(c *gin.Context) {
	utils.LogInfo("ConfirmOrderReceived called")

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
	if order.Status != models.OrderStatusShipped {
		utils.BadRequest(c, "Only shipped orders can be confirmed", gin.H{
			"current_status": models.OrderStatusText(order.Status),
		})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.Order{}).
		Where("order_no = ? AND order_status = ?", orderNo, models.OrderStatusShipped).
		Updates(map[string]interface{}{
			"order_status": models.OrderStatusCompleted,
			"receive_time": now,
			"updated_at":   now,
		}).Error; err != nil {
		utils.LogError("Failed to confirm order %s: %v", orderNo, err)
		utils.InternalServerError(c, "Failed to confirm order", err.Error())
		return
	}

	utils.Success(c, "Order confirmed as received", gin.H{
		"order_id":   orderNo,
		"new_status": models.OrderStatusCompleted,
	})
}
