// internal/services/export_service_test.go
package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/harvestdirect/backend/internal/models"
)

type ExportServiceTestSuite struct {
	suite.Suite
	db            *gorm.DB
	exportService *ExportService

	buyer  *models.User
	farmer *models.User
	apples *models.Product
	honey  *models.Product

	start time.Time
	end   time.Time
}

func (suite *ExportServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.exportService = NewExportService(NewAnalyticsService(suite.db))

	suite.buyer = createTestUser(suite.T(), suite.db, "buyer", models.RoleWholesaler)
	suite.farmer = createTestUser(suite.T(), suite.db, "farmer", models.RoleFarmer)
	suite.apples = createTestProduct(suite.T(), suite.db, suite.farmer, "Apples", "2.00", 100, "Fruit")
	suite.honey = createTestProduct(suite.T(), suite.db, suite.farmer, "Honey", "8.00", 100, "Pantry")

	suite.start = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	suite.end = suite.start.AddDate(0, 0, 3)

	suite.seedOrder(suite.start.Add(10*time.Hour), models.OrderStatusDelivered, suite.apples, 10)
	suite.seedOrder(suite.start.AddDate(0, 0, 1), models.OrderStatusPending, suite.honey, 2)
}

func (suite *ExportServiceTestSuite) seedOrder(at time.Time, status models.OrderStatus, product *models.Product, quantity int) {
	total := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
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
	suite.Require().NoError(suite.db.Create(&models.OrderItem{
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Subtotal:  total,
	}).Error)
}

func (suite *ExportServiceTestSuite) allSections() []string {
	return []string{SectionOverview, SectionSales, SectionPurchases, SectionProducts, SectionOrders}
}

func (suite *ExportServiceTestSuite) TestSellerReportContents() {
	report, err := suite.exportService.ExportSellerReportCSV(suite.farmer, suite.start, suite.end, suite.allSections())
	suite.Require().NoError(err)
	csv := string(report)

	suite.Contains(csv, "HarvestDirect Seller Analytics Report")
	suite.Contains(csv, "Seller: Test farmer (farmer)")
	suite.Contains(csv, "Period: 2026-03-10 to 2026-03-12")

	// Overview: 20.00 + 16.00 across two orders, one delivered
	suite.Contains(csv, "Total Sales,$36.00")
	suite.Contains(csv, "Total Orders,2")
	suite.Contains(csv, "Completed Orders,1")
	suite.Contains(csv, "Completion Rate,50.00%")

	// Gap-free series includes the silent middle day
	suite.Contains(csv, "2026-03-10,20.00")
	suite.Contains(csv, "2026-03-11,16.00")
	suite.Contains(csv, "2026-03-12,0.00")

	// Categories sorted alphabetically
	fruit := strings.Index(csv, "Fruit,20.00")
	pantry := strings.Index(csv, "Pantry,16.00")
	suite.Greater(fruit, -1)
	suite.Greater(pantry, fruit)

	// Product ranking and status breakdown
	suite.Contains(csv, "1,"+suite.apples.ID.String()+",Apples,Fruit,10,20.00")
	suite.Contains(csv, "PENDING,1,50.00%")
	suite.Contains(csv, "DELIVERED,1,50.00%")
}

func (suite *ExportServiceTestSuite) TestSellerReportSectionFilter() {
	report, err := suite.exportService.ExportSellerReportCSV(suite.farmer, suite.start, suite.end, []string{SectionOverview})
	suite.Require().NoError(err)
	csv := string(report)

	suite.Contains(csv, "Overview")
	suite.NotContains(csv, "Sales Over Time")
	suite.NotContains(csv, "Top Selling Products")
	suite.NotContains(csv, "Order Status Breakdown")
}

func (suite *ExportServiceTestSuite) TestBuyerReportContents() {
	report, err := suite.exportService.ExportBuyerReportCSV(suite.buyer, suite.start, suite.end, suite.allSections())
	suite.Require().NoError(err)
	csv := string(report)

	suite.Contains(csv, "HarvestDirect Buyer Analytics Report")
	suite.Contains(csv, "Buyer: Test buyer (buyer)")
	suite.Contains(csv, "Total Purchases,$36.00")
	suite.Contains(csv, "Active Purchase Days,2")
	suite.Contains(csv, "Average per Active Day,$18.00")
	suite.Contains(csv, "Frequently Purchased Products")
	// Rank between the two products depends on the id tie-break
	suite.Contains(csv, ","+suite.apples.ID.String()+",Apples,Fruit,1,10")
}

func (suite *ExportServiceTestSuite) TestAdminReportContents() {
	report, err := suite.exportService.ExportAdminReportCSV(suite.allSections())
	suite.Require().NoError(err)
	csv := string(report)

	suite.Contains(csv, "HarvestDirect System Analytics Report")
	suite.Contains(csv, "Total Users,2")
	suite.Contains(csv, "Farmers,1")
	suite.Contains(csv, "Wholesalers,1")
	suite.Contains(csv, "Total Sales,$36.00")
	suite.Contains(csv, "Fruit,1")
	suite.Contains(csv, "Pantry,1")
	suite.Contains(csv, "PENDING,1")
	suite.Contains(csv, "DELIVERED,1")
}

func TestExportServiceSuite(t *testing.T) {
	suite.Run(t, new(ExportServiceTestSuite))
}
