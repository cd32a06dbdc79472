// internal/handlers/analytics.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harvestdirect/backend/internal/services"
	"github.com/harvestdirect/backend/internal/utils"
)

type AnalyticsHandler struct {
	analytics     services.Analytics
	exportService *services.ExportService
	userService   *services.UserService
}

func NewAnalyticsHandler(analytics services.Analytics, exportService *services.ExportService, userService *services.UserService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:     analytics,
		exportService: exportService,
		userService:   userService,
	}
}

const dateLayout = "2006-01-02"

// parseDateRange reads start_date/end_date query parameters and returns a
// half-open [start, end) window at day granularity. end_date is inclusive
// in the query, so it is widened by one day. Defaults to the last 30 days.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now.AddDate(0, 0, 1)

	if v := c.Query("start_date"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date: %s", v)
		}
		start = parsed
	}
	if v := c.Query("end_date"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date: %s", v)
		}
		end = parsed.AddDate(0, 0, 1)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before end_date")
	}

	return start, end, nil
}

func parseLimit(c *gin.Context, defaultLimit int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > 100 {
		return defaultLimit
	}
	return limit
}

func parseSections(c *gin.Context, defaults []string) []string {
	raw := c.Query("sections")
	if raw == "" {
		return defaults
	}
	var sections []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}
	if len(sections) == 0 {
		return defaults
	}
	return sections
}

// GET /analytics/seller/summary
func (h *AnalyticsHandler) GetSellerSummary(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	total, err := h.analytics.TotalSales(sellerID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	statusCounts, err := h.analytics.OrderCountByStatus(sellerID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"total_sales":      total,
		"orders_by_status": statusCounts,
	})
}

// GET /analytics/seller/sales-over-time
func (h *AnalyticsHandler) GetSalesOverTime(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	series, err := h.analytics.SalesOverTime(sellerID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"series": series,
	})
}

// GET /analytics/seller/sales-by-category
func (h *AnalyticsHandler) GetSalesByCategory(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	byCategory, err := h.analytics.SalesByCategory(sellerID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"categories": byCategory,
	})
}

// GET /analytics/seller/top-products
func (h *AnalyticsHandler) GetTopProducts(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	products, err := h.analytics.TopSellingProducts(sellerID, start, end, parseLimit(c, 10))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"products": products,
	})
}

// GET /analytics/buyer/purchases-over-time
func (h *AnalyticsHandler) GetPurchasesOverTime(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	series, err := h.analytics.PurchasesOverTime(buyerID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"series": series,
	})
}

// GET /analytics/buyer/purchases-by-category
func (h *AnalyticsHandler) GetPurchasesByCategory(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	byCategory, err := h.analytics.PurchasesByCategory(buyerID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"categories": byCategory,
	})
}

// GET /analytics/buyer/frequent-products
func (h *AnalyticsHandler) GetFrequentProducts(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	products, err := h.analytics.FrequentlyPurchasedProducts(buyerID, parseLimit(c, 10))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"products": products,
	})
}

// GET /analytics/admin/stats
func (h *AnalyticsHandler) GetAdminStats(c *gin.Context) {
	stats, err := h.analytics.AdminStats()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /analytics/seller/export
func (h *AnalyticsHandler) ExportSellerReport(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	seller, err := h.userService.GetUser(sellerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sections := parseSections(c, []string{
		services.SectionOverview,
		services.SectionSales,
		services.SectionProducts,
		services.SectionOrders,
	})

	report, err := h.exportService.ExportSellerReportCSV(seller, start, end, sections)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sendCSV(c, "sales_report", report)
}

// GET /analytics/buyer/export
func (h *AnalyticsHandler) ExportBuyerReport(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	buyer, err := h.userService.GetUser(buyerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sections := parseSections(c, []string{
		services.SectionOverview,
		services.SectionPurchases,
		services.SectionProducts,
	})

	report, err := h.exportService.ExportBuyerReportCSV(buyer, start, end, sections)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sendCSV(c, "purchase_report", report)
}

// GET /analytics/admin/export
func (h *AnalyticsHandler) ExportAdminReport(c *gin.Context) {
	sections := parseSections(c, []string{
		services.SectionOverview,
		services.SectionProducts,
		services.SectionOrders,
	})

	report, err := h.exportService.ExportAdminReportCSV(sections)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sendCSV(c, "platform_report", report)
}

func sendCSV(c *gin.Context, name string, data []byte) {
	filename := fmt.Sprintf("%s_%s.csv", name, time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
