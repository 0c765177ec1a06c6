package controllers

import (
	"os"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
)

// Register creates a new user account.
func Register(c *gin.Context) {
	utils.LogInfo("Register called")

	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
		Password string `json:"password" binding:"required,min=6"`
		Email    string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid registration request: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var existing models.User
	if err := config.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		utils.LogError("Username already taken: %s", req.Username)
		utils.Conflict(c, "Username already taken", nil)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.LogError("Failed to hash password: %v", err)
		utils.InternalServerError(c, "Failed to create account", nil)
		return
	}

	user := models.User{
		Username: req.Username,
		Password: hash,
		Email:    req.Email,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		utils.LogError("Failed to create user %s: %v", req.Username, err)
		utils.InternalServerError(c, "Failed to create account", err.Error())
		return
	}

	utils.LogInfo("User registered: %s (ID %d)", user.Username, user.ID)
	utils.Created(c, "Account created successfully", gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Login authenticates a user and returns a JWT.
func Login(c *gin.Context) {
	utils.LogInfo("Login called")

	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.LogError("Login failed, user not found: %s", req.Username)
		utils.Unauthorized(c, "Invalid username or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		utils.LogError("Login failed, bad password for: %s", req.Username)
		utils.Unauthorized(c, "Invalid username or password")
		return
	}

	if user.IsBlocked {
		utils.LogError("Blocked user attempted login: %s", req.Username)
		utils.Forbidden(c, "Account is blocked")
		return
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.LogError("Failed to generate token for %s: %v", req.Username, err)
		utils.InternalServerError(c, "Failed to generate token", nil)
		return
	}

	utils.LogInfo("User logged in: %s", user.Username)
	utils.Success(c, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"is_admin": user.IsAdmin,
		},
	})
}

// CreateSampleAdmin bootstraps the admin account on first boot. The admin
// user also acts as the merchant on wallet recharge orders.
func CreateSampleAdmin() error {
	var admin models.User
	if err := config.DB.Where("username = ?", "admin").First(&admin).Error; err == nil {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin = models.User{
		Username: "admin",
		Password: hash,
		IsAdmin:  true,
	}
	if err := config.DB.Create(&admin).Error; err != nil {
		return err
	}
	utils.LogInfo("Sample admin created")
	return nil
}
