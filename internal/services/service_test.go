// internal/services/service_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harvestdirect/backend/internal/models"
)

// setupTestDB opens a private in-memory database and migrates the full
// schema. Each test gets its own database so suites cannot interfere.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     "Test " + username,
		Role:     role,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, seller *models.User, name, price string, quantity int, category string) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Description: name + " from " + seller.Name,
		Price:       decimal.RequireFromString(price),
		Quantity:    quantity,
		Category:    category,
		Unit:        "kg",
		IsAvailable: quantity > 0,
		SellerID:    seller.ID,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
