// internal/handlers/analytics_test.go
package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harvestdirect/backend/internal/models"
	"github.com/harvestdirect/backend/internal/services"
)

func setupAnalyticsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	farmer := &models.User{
		Username: "farmer",
		Email:    "farmer@example.com",
		Name:     "Test farmer",
		Role:     models.RoleFarmer,
	}
	require.NoError(t, farmer.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(farmer).Error)

	buyer := &models.User{
		Username: "buyer",
		Email:    "buyer@example.com",
		Name:     "Test buyer",
		Role:     models.RoleWholesaler,
	}
	require.NoError(t, buyer.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(buyer).Error)

	product := &models.Product{
		Name:        "Apples",
		Description: "Apples from Test farmer",
		Price:       decimal.RequireFromString("2.99"),
		Quantity:    100,
		Category:    "Fruit",
		Unit:        "kg",
		IsAvailable: true,
		SellerID:    farmer.ID,
	}
	require.NoError(t, db.Create(product).Error)

	order := &models.Order{
		BuyerID:         buyer.ID,
		SellerID:        farmer.ID,
		TotalAmount:     decimal.RequireFromString("5.98"),
		DeliveryAddress: "12 Harbor Road",
		PaymentStatus:   models.PaymentStatusPending,
		Status:          models.OrderStatusPending,
	}
	require.NoError(t, db.Create(order).Error)

	analyticsService := services.NewAnalyticsService(db)
	handler := NewAnalyticsHandler(
		analyticsService,
		services.NewExportService(analyticsService),
		services.NewUserService(db),
	)

	r := gin.New()
	r.GET("/analytics/admin/export", handler.ExportAdminReport)
	return r
}

func getExport(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExportAdminReportDefaultSections(t *testing.T) {
	r := setupAnalyticsRouter(t)

	w := getExport(r, "/analytics/admin/export")
	require.Equal(t, http.StatusOK, w.Code)

	// Without an explicit sections parameter the report is the full
	// platform snapshot: overview plus product and order breakdowns.
	csv := w.Body.String()
	assert.Contains(t, csv, "System Overview")
	assert.Contains(t, csv, "Products by Category")
	assert.Contains(t, csv, "Fruit,1")
	assert.Contains(t, csv, "Orders by Status")
	assert.Contains(t, csv, "PENDING,1")
}

func TestExportAdminReportSectionFilter(t *testing.T) {
	r := setupAnalyticsRouter(t)

	w := getExport(r, "/analytics/admin/export?sections=overview")
	require.Equal(t, http.StatusOK, w.Code)

	csv := w.Body.String()
	assert.Contains(t, csv, "System Overview")
	assert.NotContains(t, csv, "Products by Category")
	assert.NotContains(t, csv, "Orders by Status")
}
