package models

import (
	"time"
)

// User represents a shop account. The wallet balance lives directly on the
// user row and is only mutated by the recharge and purchase paths.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	RealName  string    `json:"realname"`
	AvatarURL string    `json:"avatar"`
	Balance   float64   `gorm:"default:0" json:"balance"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	IsBlocked bool      `gorm:"default:false" json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
