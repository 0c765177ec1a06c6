package controllers

import (
	"fmt"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
)

// AddToCart adds a product to the cart, merging quantity on repeat adds.
func AddToCart(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. product_id and quantity are required", err.Error())
		return
	}

	var product models.Product
	if err := config.DB.First(&product, req.ProductID).Error; err != nil {
		utils.NotFound(c, "Product not found")
		return
	}

	var item models.CartItem
	err := config.DB.Where("user_id = ? AND product_id = ?", user.ID, req.ProductID).First(&item).Error
	if err != nil {
		item = models.CartItem{
			UserID:    user.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := config.DB.Create(&item).Error; err != nil {
			utils.LogError("Failed to add cart item for user %d: %v", user.ID, err)
			utils.InternalServerError(c, "Failed to add to cart", err.Error())
			return
		}
	} else {
		item.Quantity += req.Quantity
		if err := config.DB.Save(&item).Error; err != nil {
			utils.LogError("Failed to update cart item for user %d: %v", user.ID, err)
			utils.InternalServerError(c, "Failed to update cart", err.Error())
			return
		}
	}

	utils.LogInfo("Cart updated for user %d: product %d x%d", user.ID, req.ProductID, item.Quantity)
	utils.Success(c, "Added to cart", gin.H{
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})
}

// GetCart lists the cart with per-line and overall totals.
func GetCart(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var items []models.CartItem
	if err := config.DB.Preload("Product").Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		utils.LogError("Failed to load cart for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to load cart", err.Error())
		return
	}

	var cartTotal, cartPayable float64
	lines := make([]gin.H, 0, len(items))
	for _, item := range items {
		total, pay := utils.CalcOrderAmounts(item.Product.Price, item.Quantity, item.Product.Discount)
		cartTotal += total
		cartPayable += pay
		lines = append(lines, gin.H{
			"product_id": item.ProductID,
			"name":       item.Product.Name,
			"price":      item.Product.Price,
			"discount":   item.Product.Discount,
			"quantity":   item.Quantity,
			"total":      fmt.Sprintf("%.2f", total),
			"payable":    fmt.Sprintf("%.2f", pay),
		})
	}

	utils.Success(c, "Cart retrieved successfully", gin.H{
		"items":   lines,
		"total":   fmt.Sprintf("%.2f", cartTotal),
		"payable": fmt.Sprintf("%.2f", cartPayable),
	})
}

// ClearCart removes every item from the user's cart.
func ClearCart(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	if err := config.DB.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
		utils.LogError("Failed to clear cart for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to clear cart", err.Error())
		return
	}

	utils.LogInfo("Cart cleared for user %d", user.ID)
	utils.Success(c, "Cart cleared", nil)
}
