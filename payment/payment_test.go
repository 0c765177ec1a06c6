package payment

import (
	"testing"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.MigrateModels(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, balance float64) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x", Balance: balance}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedOrder(t *testing.T, db *gorm.DB, order models.Order) models.Order {
	t.Helper()
	if order.Quantity == 0 {
		order.Quantity = 1
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func reloadOrder(t *testing.T, db *gorm.DB, orderNo string) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, db.Where("order_no = ?", orderNo).First(&order).Error)
	return order
}
