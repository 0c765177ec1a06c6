package controllers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
)

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// GetProfile returns the authenticated user's profile.
func GetProfile(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	utils.Success(c, "Profile retrieved successfully", gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"phone":    user.Phone,
		"address":  user.Address,
		"realname": user.RealName,
		"avatar":   user.AvatarURL,
		"balance":  fmt.Sprintf("%.2f", user.Balance),
	})
}

// profileUpdateRequest models the partial update: nil means "leave the
// column alone", the typed alternative to building SQL from whatever keys
// happen to be present.
type profileUpdateRequest struct {
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	RealName *string `json:"realname"`
}

// UpdateProfile updates address, phone or real name. Only fields present
// in the request are written.
func UpdateProfile(c *gin.Context) {
	utils.LogInfo("UpdateProfile called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if len(address) < 5 || len(address) > 100 {
			utils.BadRequest(c, "Address must be between 5 and 100 characters", nil)
			return
		}
		updates["address"] = address
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone != "" && !phonePattern.MatchString(phone) {
			utils.BadRequest(c, "Invalid phone number", nil)
			return
		}
		updates["phone"] = phone
	}
	if req.RealName != nil {
		updates["real_name"] = strings.TrimSpace(*req.RealName)
	}

	if len(updates) == 0 {
		utils.BadRequest(c, "Nothing to update", nil)
		return
	}

	if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
		utils.LogError("Failed to update profile for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to update profile", err.Error())
		return
	}

	utils.LogInfo("Profile updated for user %d", user.ID)
	utils.Success(c, "Profile updated successfully", nil)
}

// GetWallet returns the wallet balance and recent ledger entries.
func GetWallet(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	// Re-read the balance; the context copy may predate a recharge.
	var fresh models.User
	if err := config.DB.First(&fresh, user.ID).Error; err != nil {
		utils.InternalServerError(c, "Failed to load wallet", err.Error())
		return
	}

	var transactions []models.WalletTransaction
	if err := config.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&transactions).Error; err != nil {
		utils.LogError("Failed to load wallet transactions for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to load wallet transactions", err.Error())
		return
	}

	utils.Success(c, "Wallet retrieved successfully", gin.H{
		"balance":      fmt.Sprintf("%.2f", fresh.Balance),
		"transactions": transactions,
	})
}
