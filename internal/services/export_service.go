// internal/services/export_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestdirect/backend/internal/models"
)

// ExportService renders analytics results into transport-ready CSV
// documents. It only consumes the typed results from the Analytics
// interface; filename and content-type are the handler's concern.
type ExportService struct {
	analytics Analytics
}

// Report section names accepted by the export endpoints.
const (
	SectionOverview  = "overview"
	SectionSales     = "sales"
	SectionPurchases = "purchases"
	SectionProducts  = "products"
	SectionOrders    = "orders"
)

const sectionRule = "-------------------------------------------------"

func NewExportService(analytics Analytics) *ExportService {
	return &ExportService{analytics: analytics}
}

func (s *ExportService) ExportSellerReportCSV(seller *models.User, start, end time.Time, sections []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	writeRow(w, "HarvestDirect Seller Analytics Report")
	writeRow(w, fmt.Sprintf("Seller: %s (%s)", seller.Name, seller.Username))
	writeRow(w, fmt.Sprintf("Period: %s to %s", formatDay(start), formatDay(end.AddDate(0, 0, -1))))
	writeRow(w, "Generated on: "+formatDay(time.Now()))
	writeRow(w)

	if contains(sections, SectionOverview) {
		totalSales, err := s.analytics.TotalSales(seller.ID, start, end)
		if err != nil {
			return nil, err
		}
		statusCounts, err := s.analytics.OrderCountByStatus(seller.ID, start, end)
		if err != nil {
			return nil, err
		}
		var totalOrders int64
		for _, count := range statusCounts {
			totalOrders += count
		}
		completed := statusCounts[models.OrderStatusDelivered]
		completionRate := 0.0
		if totalOrders > 0 {
			completionRate = float64(completed) / float64(totalOrders) * 100
		}

		writeRow(w, "Overview")
		writeRow(w, sectionRule)
		writeRow(w, "Total Sales", "$"+totalSales.StringFixed(2))
		writeRow(w, "Total Orders", fmt.Sprintf("%d", totalOrders))
		writeRow(w, "Completed Orders", fmt.Sprintf("%d", completed))
		writeRow(w, "Completion Rate", fmt.Sprintf("%.2f%%", completionRate))
		writeRow(w)
	}

	if contains(sections, SectionSales) {
		series, err := s.analytics.SalesOverTime(seller.ID, start, end)
		if err != nil {
			return nil, err
		}
		writeRow(w, "Sales Over Time")
		writeRow(w, sectionRule)
		writeRow(w, "Date", "Sales Amount ($)")
		for _, point := range series {
			writeRow(w, formatDay(point.Date), point.Amount.StringFixed(2))
		}
		writeRow(w)

		byCategory, err := s.analytics.SalesByCategory(seller.ID, start, end)
		if err != nil {
			return nil, err
		}
		writeRow(w, "Sales by Category")
		writeRow(w, sectionRule)
		writeRow(w, "Category", "Sales Amount ($)")
		for _, category := range sortedKeys(byCategory) {
			writeRow(w, category, byCategory[category].StringFixed(2))
		}
		writeRow(w)
	}

	if contains(sections, SectionProducts) {
		top, err := s.analytics.TopSellingProducts(seller.ID, start, end, 10)
		if err != nil {
			return nil, err
		}
		writeRow(w, "Top Selling Products")
		writeRow(w, sectionRule)
		writeRow(w, "Rank", "Product ID", "Product Name", "Category", "Quantity Sold", "Revenue ($)")
		for i, entry := range top {
			writeRow(w,
				fmt.Sprintf("%d", i+1),
				entry.Product.ID.String(),
				entry.Product.Name,
				entry.Product.Category,
				fmt.Sprintf("%d", entry.QuantitySold),
				entry.Revenue.StringFixed(2),
			)
		}
		writeRow(w)
	}

	if contains(sections, SectionOrders) {
		statusCounts, err := s.analytics.OrderCountByStatus(seller.ID, start, end)
		if err != nil {
			return nil, err
		}
		var totalOrders int64
		for _, count := range statusCounts {
			totalOrders += count
		}

		writeRow(w, "Order Status Breakdown")
		writeRow(w, sectionRule)
		writeRow(w, "Status", "Count", "Percentage")
		for _, status := range models.AllOrderStatuses {
			count, ok := statusCounts[status]
			if !ok {
				continue
			}
			percentage := 0.0
			if totalOrders > 0 {
				percentage = float64(count) / float64(totalOrders) * 100
			}
			writeRow(w, string(status), fmt.Sprintf("%d", count), fmt.Sprintf("%.2f%%", percentage))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) ExportBuyerReportCSV(buyer *models.User, start, end time.Time, sections []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	writeRow(w, "HarvestDirect Buyer Analytics Report")
	writeRow(w, fmt.Sprintf("Buyer: %s (%s)", buyer.Name, buyer.Username))
	writeRow(w, fmt.Sprintf("Period: %s to %s", formatDay(start), formatDay(end.AddDate(0, 0, -1))))
	writeRow(w, "Generated on: "+formatDay(time.Now()))
	writeRow(w)

	if contains(sections, SectionOverview) {
		series, err := s.analytics.PurchasesOverTime(buyer.ID, start, end)
		if err != nil {
			return nil, err
		}
		totalPurchases := decimal.Zero
		activeDays := 0
		for _, point := range series {
			totalPurchases = totalPurchases.Add(point.Amount)
			if !point.Amount.IsZero() {
				activeDays++
			}
		}
		averagePerDay := decimal.Zero
		if activeDays > 0 {
			averagePerDay = totalPurchases.DivRound(decimal.NewFromInt(int64(activeDays)), 2)
		}

		writeRow(w, "Overview")
		writeRow(w, sectionRule)
		writeRow(w, "Total Purchases", "$"+totalPurchases.StringFixed(2))
		writeRow(w, "Active Purchase Days", fmt.Sprintf("%d", activeDays))
		writeRow(w, "Average per Active Day", "$"+averagePerDay.StringFixed(2))
		writeRow(w)
	}

	if contains(sections, SectionPurchases) {
		series, err := s.analytics.PurchasesOverTime(buyer.ID, start, end)
		if err != nil {
			return nil, err
		}
		writeRow(w, "Purchases Over Time")
		writeRow(w, sectionRule)
		writeRow(w, "Date", "Purchase Amount ($)")
		for _, point := range series {
			writeRow(w, formatDay(point.Date), point.Amount.StringFixed(2))
		}
		writeRow(w)

		byCategory, err := s.analytics.PurchasesByCategory(buyer.ID, start, end)
		if err != nil {
			return nil, err
		}
		writeRow(w, "Purchases by Category")
		writeRow(w, sectionRule)
		writeRow(w, "Category", "Purchase Amount ($)")
		for _, category := range sortedKeys(byCategory) {
			writeRow(w, category, byCategory[category].StringFixed(2))
		}
		writeRow(w)
	}

	if contains(sections, SectionProducts) {
		frequent, err := s.analytics.FrequentlyPurchasedProducts(buyer.ID, 10)
		if err != nil {
			return nil, err
		}
		writeRow(w, "Frequently Purchased Products")
		writeRow(w, sectionRule)
		writeRow(w, "Rank", "Product ID", "Product Name", "Category", "Purchase Frequency", "Total Quantity")
		for i, entry := range frequent {
			writeRow(w,
				fmt.Sprintf("%d", i+1),
				entry.Product.ID.String(),
				entry.Product.Name,
				entry.Product.Category,
				fmt.Sprintf("%d", entry.OrderCount),
				fmt.Sprintf("%d", entry.QuantityPurchased),
			)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) ExportAdminReportCSV(sections []string) ([]byte, error) {
	stats, err := s.analytics.AdminStats()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	writeRow(w, "HarvestDirect System Analytics Report")
	writeRow(w, "Generated on: "+formatDay(time.Now()))
	writeRow(w)

	if contains(sections, SectionOverview) {
		var totalUsers int64
		for _, count := range stats.UsersByRole {
			totalUsers += count
		}
		writeRow(w, "System Overview")
		writeRow(w, sectionRule)
		writeRow(w, "Total Users", fmt.Sprintf("%d", totalUsers))
		writeRow(w, "Farmers", fmt.Sprintf("%d", stats.UsersByRole[models.RoleFarmer]))
		writeRow(w, "Fishermen", fmt.Sprintf("%d", stats.UsersByRole[models.RoleFisherman]))
		writeRow(w, "Wholesalers", fmt.Sprintf("%d", stats.UsersByRole[models.RoleWholesaler]))
		writeRow(w, "Total Sales", "$"+stats.TotalSales.StringFixed(2))
		writeRow(w)
	}

	if contains(sections, SectionProducts) {
		writeRow(w, "Products by Category")
		writeRow(w, sectionRule)
		writeRow(w, "Category", "Count")
		for _, category := range sortedKeys(stats.ProductsByCategory) {
			writeRow(w, category, fmt.Sprintf("%d", stats.ProductsByCategory[category]))
		}
		writeRow(w)
	}

	if contains(sections, SectionOrders) {
		writeRow(w, "Orders by Status")
		writeRow(w, sectionRule)
		writeRow(w, "Status", "Count")
		for _, status := range models.AllOrderStatuses {
			if count, ok := stats.OrdersByStatus[status]; ok {
				writeRow(w, string(status), fmt.Sprintf("%d", count))
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(w *csv.Writer, fields ...string) {
	if len(fields) == 0 {
		fields = []string{""}
	}
	w.Write(fields)
}

func formatDay(t time.Time) string {
	return t.Format("2006-01-02")
}

func contains(sections []string, section string) bool {
	for _, s := range sections {
		if s == section {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
