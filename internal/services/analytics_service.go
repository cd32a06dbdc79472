// internal/services/analytics_service.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harvestdirect/backend/internal/models"
)

// Analytics is the read side over the order ledger. Every method
// recomputes from the current store; the interface is the seam for a
// pre-aggregated implementation if call volume ever demands one.
type Analytics interface {
	SalesOverTime(sellerID uuid.UUID, start, end time.Time) ([]DailyAmount, error)
	TotalSales(sellerID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	SalesByCategory(sellerID uuid.UUID, start, end time.Time) (map[string]decimal.Decimal, error)
	TopSellingProducts(sellerID uuid.UUID, start, end time.Time, limit int) ([]RankedProduct, error)
	OrderCountByStatus(sellerID uuid.UUID, start, end time.Time) (map[models.OrderStatus]int64, error)
	PurchasesOverTime(buyerID uuid.UUID, start, end time.Time) ([]DailyAmount, error)
	PurchasesByCategory(buyerID uuid.UUID, start, end time.Time) (map[string]decimal.Decimal, error)
	FrequentlyPurchasedProducts(buyerID uuid.UUID, limit int) ([]FrequentProduct, error)
	AdminStats() (*AdminStats, error)
}

// DailyAmount is one day bucket of a gap-free series.
type DailyAmount struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type RankedProduct struct {
	Product      models.Product  `json:"product"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type FrequentProduct struct {
	Product           models.Product `json:"product"`
	OrderCount        int            `json:"order_count"`
	QuantityPurchased int            `json:"quantity_purchased"`
}

type AdminStats struct {
	UsersByRole        map[models.UserRole]int64    `json:"users_by_role"`
	ProductsByCategory map[string]int64             `json:"products_by_category"`
	OrdersByStatus     map[models.OrderStatus]int64 `json:"orders_by_status"`
	TotalSales         decimal.Decimal              `json:"total_sales"`
}

type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

var _ Analytics = (*AnalyticsService)(nil)

// ordersInWindow loads a party's orders in [start, end) with items and
// products. Products are loaded unscoped so history survives a seller
// deleting a listing.
func (s *AnalyticsService) ordersInWindow(column string, partyID uuid.UUID, start, end time.Time) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Where(column+" = ? AND created_at >= ? AND created_at < ?", partyID, start, end).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

// dailySeries pre-populates every calendar day covered by [start, end)
// with zero, then folds in order totals by order date. The result has no
// gaps and is ascending by date, ready for charting.
func dailySeries(orders []models.Order, start, end time.Time) []DailyAmount {
	index := make(map[string]int)
	var series []DailyAmount

	for day := truncateToDay(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		index[dayKey(day)] = len(series)
		series = append(series, DailyAmount{Date: day, Amount: decimal.Zero})
	}

	for _, order := range orders {
		key := dayKey(order.CreatedAt)
		if i, ok := index[key]; ok {
			series[i].Amount = series[i].Amount.Add(order.TotalAmount)
		}
	}
	return series
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (s *AnalyticsService) SalesOverTime(sellerID uuid.UUID, start, end time.Time) ([]DailyAmount, error) {
	orders, err := s.ordersInWindow("seller_id", sellerID, start, end)
	if err != nil {
		return nil, err
	}
	return dailySeries(orders, start, end), nil
}

func (s *AnalyticsService) TotalSales(sellerID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	orders, err := s.ordersInWindow("seller_id", sellerID, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, order := range orders {
		total = total.Add(order.TotalAmount)
	}
	return total, nil
}

// SalesByCategory attributes each item's subtotal to its product's
// *current* category. Reassigning a product to a new category shifts
// historical attribution; that is intended behavior, not a defect.
func (s *AnalyticsService) SalesByCategory(sellerID uuid.UUID, start, end time.Time) (map[string]decimal.Decimal, error) {
	orders, err := s.ordersInWindow("seller_id", sellerID, start, end)
	if err != nil {
		return nil, err
	}
	return amountByCategory(orders), nil
}

func amountByCategory(orders []models.Order) map[string]decimal.Decimal {
	byCategory := make(map[string]decimal.Decimal)
	for _, order := range orders {
		for _, item := range order.Items {
			category := "Other"
			if item.Product != nil {
				category = item.Product.Category
			}
			current, ok := byCategory[category]
			if !ok {
				current = decimal.Zero
			}
			byCategory[category] = current.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return byCategory
}

func (s *AnalyticsService) TopSellingProducts(sellerID uuid.UUID, start, end time.Time, limit int) ([]RankedProduct, error) {
	orders, err := s.ordersInWindow("seller_id", sellerID, start, end)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uuid.UUID]*RankedProduct)
	for _, order := range orders {
		for _, item := range order.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				entry = &RankedProduct{Revenue: decimal.Zero}
				if item.Product != nil {
					entry.Product = *item.Product
				}
				byProduct[item.ProductID] = entry
			}
			entry.QuantitySold += item.Quantity
			entry.Revenue = entry.Revenue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	ranked := make([]RankedProduct, 0, len(byProduct))
	for _, entry := range byProduct {
		ranked = append(ranked, *entry)
	}
	// Descending by revenue, ties stabilized by product id so exports
	// are reproducible.
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].Revenue.Cmp(ranked[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].Product.ID.String() < ranked[j].Product.ID.String()
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *AnalyticsService) OrderCountByStatus(sellerID uuid.UUID, start, end time.Time) (map[models.OrderStatus]int64, error) {
	orders, err := s.ordersInWindow("seller_id", sellerID, start, end)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64)
	for _, order := range orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (s *AnalyticsService) PurchasesOverTime(buyerID uuid.UUID, start, end time.Time) ([]DailyAmount, error) {
	orders, err := s.ordersInWindow("buyer_id", buyerID, start, end)
	if err != nil {
		return nil, err
	}
	return dailySeries(orders, start, end), nil
}

func (s *AnalyticsService) PurchasesByCategory(buyerID uuid.UUID, start, end time.Time) (map[string]decimal.Decimal, error) {
	orders, err := s.ordersInWindow("buyer_id", buyerID, start, end)
	if err != nil {
		return nil, err
	}
	return amountByCategory(orders), nil
}

// FrequentlyPurchasedProducts ranks the buyer's full order history.
// OrderCount counts distinct orders containing the product, not line
// occurrences; QuantityPurchased sums quantity across all orders.
func (s *AnalyticsService) FrequentlyPurchasedProducts(buyerID uuid.UUID, limit int) ([]FrequentProduct, error) {
	var orders []models.Order
	if err := s.db.Where("buyer_id = ?", buyerID).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	byProduct := make(map[uuid.UUID]*FrequentProduct)
	for _, order := range orders {
		seen := make(map[uuid.UUID]bool)
		for _, item := range order.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				entry = &FrequentProduct{}
				if item.Product != nil {
					entry.Product = *item.Product
				}
				byProduct[item.ProductID] = entry
			}
			entry.QuantityPurchased += item.Quantity
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				entry.OrderCount++
			}
		}
	}

	frequent := make([]FrequentProduct, 0, len(byProduct))
	for _, entry := range byProduct {
		frequent = append(frequent, *entry)
	}
	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].OrderCount != frequent[j].OrderCount {
			return frequent[i].OrderCount > frequent[j].OrderCount
		}
		return frequent[i].Product.ID.String() < frequent[j].Product.ID.String()
	})

	if limit > 0 && len(frequent) > limit {
		frequent = frequent[:limit]
	}
	return frequent, nil
}

// AdminStats is a full-table snapshot. Administrative and infrequent;
// not meant for high-frequency polling.
func (s *AnalyticsService) AdminStats() (*AdminStats, error) {
	stats := &AdminStats{
		UsersByRole:        make(map[models.UserRole]int64),
		ProductsByCategory: make(map[string]int64),
		OrdersByStatus:     make(map[models.OrderStatus]int64),
		TotalSales:         decimal.Zero,
	}

	for _, role := range []models.UserRole{models.RoleFarmer, models.RoleFisherman, models.RoleWholesaler, models.RoleAdmin} {
		var count int64
		if err := s.db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
		stats.UsersByRole[role] = count
	}

	var categoryCounts []struct {
		Category string
		Count    int64
	}
	if err := s.db.Model(&models.Product{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&categoryCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products by category: %w", err)
	}
	for _, row := range categoryCounts {
		stats.ProductsByCategory[row.Category] = row.Count
	}

	var orders []models.Order
	if err := s.db.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	for _, order := range orders {
		stats.OrdersByStatus[order.Status]++
		stats.TotalSales = stats.TotalSales.Add(order.TotalAmount)
	}

	return stats, nil
}
