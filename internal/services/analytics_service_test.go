// internal/services/analytics_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/harvestdirect/backend/internal/models"
)

type orderLine struct {
	product  *models.Product
	quantity int
}

type AnalyticsServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	analytics *AnalyticsService

	buyer   *models.User
	farmer  *models.User
	apples  *models.Product
	carrots *models.Product
	honey   *models.Product

	day1 time.Time
	day2 time.Time
	day3 time.Time
}

func (suite *AnalyticsServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.analytics = NewAnalyticsService(suite.db)

	suite.buyer = createTestUser(suite.T(), suite.db, "buyer", models.RoleWholesaler)
	suite.farmer = createTestUser(suite.T(), suite.db, "farmer", models.RoleFarmer)

	suite.apples = createTestProduct(suite.T(), suite.db, suite.farmer, "Apples", "2.00", 100, "Fruit")
	suite.carrots = createTestProduct(suite.T(), suite.db, suite.farmer, "Carrots", "1.50", 100, "Vegetables")
	suite.honey = createTestProduct(suite.T(), suite.db, suite.farmer, "Honey", "8.00", 100, "Pantry")

	suite.day1 = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	suite.day2 = suite.day1.AddDate(0, 0, 1)
	suite.day3 = suite.day1.AddDate(0, 0, 2)
}

// createOrder persists a delivered order for the suite's buyer and farmer
// with a fixed creation time, bypassing the fulfillment engine.
func (suite *AnalyticsServiceTestSuite) createOrder(at time.Time, status models.OrderStatus, lines ...orderLine) *models.Order {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.product.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
	}

	order := &models.Order{
		BuyerID:         suite.buyer.ID,
		SellerID:        suite.farmer.ID,
		TotalAmount:     total,
		DeliveryAddress: "12 Harbor Road",
		PaymentStatus:   models.PaymentStatusCompleted,
		Status:          status,
	}
	order.CreatedAt = at
	suite.Require().NoError(suite.db.Create(order).Error)

	for _, line := range lines {
		item := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.product.ID,
			Quantity:  line.quantity,
			UnitPrice: line.product.Price,
			Subtotal:  line.product.Price.Mul(decimal.NewFromInt(int64(line.quantity))),
		}
		suite.Require().NoError(suite.db.Create(item).Error)
	}
	return order
}

func (suite *AnalyticsServiceTestSuite) window() (time.Time, time.Time) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 3)
}

func (suite *AnalyticsServiceTestSuite) TestSalesOverTimeIsGapFree() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 10})
	suite.createOrder(suite.day3, models.OrderStatusDelivered, orderLine{suite.carrots, 4})

	start, end := suite.window()
	series, err := suite.analytics.SalesOverTime(suite.farmer.ID, start, end)
	suite.Require().NoError(err)
	suite.Require().Len(series, 3)

	// Every day appears, ascending, with zero for the silent day
	suite.Equal("2026-03-10", series[0].Date.Format("2006-01-02"))
	suite.Equal("2026-03-11", series[1].Date.Format("2006-01-02"))
	suite.Equal("2026-03-12", series[2].Date.Format("2006-01-02"))

	suite.True(series[0].Amount.Equal(decimal.RequireFromString("20.00")))
	suite.True(series[1].Amount.IsZero())
	suite.True(series[2].Amount.Equal(decimal.RequireFromString("6.00")))
}

func (suite *AnalyticsServiceTestSuite) TestSeriesSumMatchesTotalSales() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 5})
	suite.createOrder(suite.day2, models.OrderStatusPending, orderLine{suite.honey, 2})

	start, end := suite.window()
	series, err := suite.analytics.SalesOverTime(suite.farmer.ID, start, end)
	suite.Require().NoError(err)

	sum := decimal.Zero
	for _, bucket := range series {
		sum = sum.Add(bucket.Amount)
	}

	total, err := suite.analytics.TotalSales(suite.farmer.ID, start, end)
	suite.Require().NoError(err)
	suite.True(sum.Equal(total), "series sum %s != total %s", sum, total)
	suite.True(total.Equal(decimal.RequireFromString("26.00")))
}

func (suite *AnalyticsServiceTestSuite) TestWindowEndIsExclusive() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 1})

	start, _ := suite.window()
	// Window closes at day1 midnight, so the order falls outside
	total, err := suite.analytics.TotalSales(suite.farmer.ID, start.AddDate(0, 0, -3), start)
	suite.Require().NoError(err)
	suite.True(total.IsZero())
}

func (suite *AnalyticsServiceTestSuite) TestSalesByCategoryFollowsCurrentCategory() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered,
		orderLine{suite.apples, 10}, orderLine{suite.carrots, 2})

	start, end := suite.window()
	byCategory, err := suite.analytics.SalesByCategory(suite.farmer.ID, start, end)
	suite.Require().NoError(err)
	suite.True(byCategory["Fruit"].Equal(decimal.RequireFromString("20.00")))
	suite.True(byCategory["Vegetables"].Equal(decimal.RequireFromString("3.00")))

	// Recategorizing the product moves its full history with it
	suite.Require().NoError(suite.db.Model(&models.Product{}).
		Where("id = ?", suite.apples.ID).
		Update("category", "Orchard").Error)

	byCategory, err = suite.analytics.SalesByCategory(suite.farmer.ID, start, end)
	suite.Require().NoError(err)
	suite.True(byCategory["Orchard"].Equal(decimal.RequireFromString("20.00")))
	_, ok := byCategory["Fruit"]
	suite.False(ok)
}

func (suite *AnalyticsServiceTestSuite) TestDeletedProductKeepsItsHistory() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 10})

	// Soft delete the listing; history must still attribute to it
	suite.Require().NoError(suite.db.Delete(&models.Product{}, "id = ?", suite.apples.ID).Error)

	start, end := suite.window()
	byCategory, err := suite.analytics.SalesByCategory(suite.farmer.ID, start, end)
	suite.Require().NoError(err)
	suite.True(byCategory["Fruit"].Equal(decimal.RequireFromString("20.00")))

	ranked, err := suite.analytics.TopSellingProducts(suite.farmer.ID, start, end, 10)
	suite.Require().NoError(err)
	suite.Require().Len(ranked, 1)
	suite.Equal("Apples", ranked[0].Product.Name)
}

func (suite *AnalyticsServiceTestSuite) TestTopSellingProductsRankedByRevenue() {
	// Honey: 5*8.00 = 40.00, Apples: 15*2.00 = 30.00, Carrots: 4*1.50 = 6.00
	suite.createOrder(suite.day1, models.OrderStatusDelivered,
		orderLine{suite.apples, 15}, orderLine{suite.honey, 5})
	suite.createOrder(suite.day2, models.OrderStatusDelivered, orderLine{suite.carrots, 4})

	start, end := suite.window()
	ranked, err := suite.analytics.TopSellingProducts(suite.farmer.ID, start, end, 10)
	suite.Require().NoError(err)
	suite.Require().Len(ranked, 3)

	suite.Equal("Honey", ranked[0].Product.Name)
	suite.Equal("Apples", ranked[1].Product.Name)
	suite.Equal("Carrots", ranked[2].Product.Name)
	suite.Equal(5, ranked[0].QuantitySold)
	suite.True(ranked[0].Revenue.Equal(decimal.RequireFromString("40.00")))

	// Limit truncates after ranking
	top, err := suite.analytics.TopSellingProducts(suite.farmer.ID, start, end, 2)
	suite.Require().NoError(err)
	suite.Require().Len(top, 2)
	suite.Equal("Honey", top[0].Product.Name)
}

func (suite *AnalyticsServiceTestSuite) TestOrderCountByStatus() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 1})
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.carrots, 1})
	suite.createOrder(suite.day2, models.OrderStatusCancelled, orderLine{suite.honey, 1})

	start, end := suite.window()
	counts, err := suite.analytics.OrderCountByStatus(suite.farmer.ID, start, end)
	suite.Require().NoError(err)
	suite.Equal(int64(2), counts[models.OrderStatusDelivered])
	suite.Equal(int64(1), counts[models.OrderStatusCancelled])
	suite.Zero(counts[models.OrderStatusShipped])
}

func (suite *AnalyticsServiceTestSuite) TestBuyerViewsMirrorSellerViews() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 10})

	start, end := suite.window()
	series, err := suite.analytics.PurchasesOverTime(suite.buyer.ID, start, end)
	suite.Require().NoError(err)
	suite.Require().Len(series, 3)
	suite.True(series[0].Amount.Equal(decimal.RequireFromString("20.00")))

	byCategory, err := suite.analytics.PurchasesByCategory(suite.buyer.ID, start, end)
	suite.Require().NoError(err)
	suite.True(byCategory["Fruit"].Equal(decimal.RequireFromString("20.00")))
}

func (suite *AnalyticsServiceTestSuite) TestFrequentProductsCountDistinctOrders() {
	// Apples appear in two orders, honey twice within a single order
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 2})
	suite.createOrder(suite.day2, models.OrderStatusDelivered,
		orderLine{suite.apples, 3}, orderLine{suite.honey, 1}, orderLine{suite.honey, 4})

	frequent, err := suite.analytics.FrequentlyPurchasedProducts(suite.buyer.ID, 10)
	suite.Require().NoError(err)
	suite.Require().Len(frequent, 2)

	suite.Equal("Apples", frequent[0].Product.Name)
	suite.Equal(2, frequent[0].OrderCount)
	suite.Equal(5, frequent[0].QuantityPurchased)

	suite.Equal("Honey", frequent[1].Product.Name)
	suite.Equal(1, frequent[1].OrderCount)
	suite.Equal(5, frequent[1].QuantityPurchased)
}

func (suite *AnalyticsServiceTestSuite) TestAdminStats() {
	suite.createOrder(suite.day1, models.OrderStatusDelivered, orderLine{suite.apples, 10})
	suite.createOrder(suite.day2, models.OrderStatusPending, orderLine{suite.honey, 1})

	stats, err := suite.analytics.AdminStats()
	suite.Require().NoError(err)

	suite.Equal(int64(1), stats.UsersByRole[models.RoleFarmer])
	suite.Equal(int64(1), stats.UsersByRole[models.RoleWholesaler])
	suite.Zero(stats.UsersByRole[models.RoleAdmin])

	suite.Equal(int64(1), stats.ProductsByCategory["Fruit"])
	suite.Equal(int64(1), stats.ProductsByCategory["Vegetables"])
	suite.Equal(int64(1), stats.ProductsByCategory["Pantry"])

	suite.Equal(int64(1), stats.OrdersByStatus[models.OrderStatusDelivered])
	suite.Equal(int64(1), stats.OrdersByStatus[models.OrderStatusPending])
	suite.True(stats.TotalSales.Equal(decimal.RequireFromString("28.00")))
}

func TestAnalyticsServiceSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}
