package controllers

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
)

func salesPeriodRange(c *gin.Context, period string) (time.Time, time.Time, bool) {
	now := time.Now()
	var startDate, endDate time.Time

	switch period {
	case "day":
		startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endDate = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
	case "week":
		endDate = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
		startDate = endDate.AddDate(0, 0, -6)
		startDate = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())
	case "month":
		startDate = now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
		endDate = now.Add(24 * time.Hour)
	case "custom":
		startDateStr := c.Query("start_date")
		endDateStr := c.Query("end_date")
		if startDateStr == "" || endDateStr == "" {
			utils.BadRequest(c, "Missing date range", "Both start_date and end_date are required for custom period")
			return startDate, endDate, false
		}
		var err error
		startDate, err = time.Parse("2006-01-02", startDateStr)
		if err != nil {
			utils.BadRequest(c, "Invalid start date", "Start date must be in YYYY-MM-DD format")
			return startDate, endDate, false
		}
		endDate, err = time.Parse("2006-01-02", endDateStr)
		if err != nil {
			utils.BadRequest(c, "Invalid end date", "End date must be in YYYY-MM-DD format")
			return startDate, endDate, false
		}
		// Include the whole end day.
		endDate = endDate.Add(24 * time.Hour)
		if endDate.Before(startDate) {
			utils.BadRequest(c, "Invalid date range", "End date must be after start date")
			return startDate, endDate, false
		}
		if endDate.Sub(startDate) > 90*24*time.Hour {
			utils.BadRequest(c, "Invalid date range", "Date range cannot exceed 90 days")
			return startDate, endDate, false
		}
	default:
		utils.LogError("Invalid period specified: %s", period)
		utils.BadRequest(c, "Invalid period", "Period must be day, week, month, or custom")
		return startDate, endDate, false
	}
	return startDate, endDate, true
}

type salesSummary struct {
	TotalSales      int     `json:"total_sales"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalItems      int     `json:"total_items"`
	TotalCustomers  int     `json:"total_customers"`
	TotalDiscounts  float64 `json:"total_discounts"`
	AverageOrderVal float64 `json:"average_order_value"`
}

func summarizeSales(orders []models.Order) salesSummary {
	var summary salesSummary
	customerSet := make(map[uint]bool)
	for _, order := range orders {
		summary.TotalSales++
		summary.TotalRevenue += order.PayAmount
		summary.TotalDiscounts += order.TotalAmount - order.PayAmount
		summary.TotalItems += order.Quantity
		customerSet[order.UserID] = true
	}
	summary.TotalCustomers = len(customerSet)
	if summary.TotalSales > 0 {
		summary.AverageOrderVal = math.Round((summary.TotalRevenue/float64(summary.TotalSales))*100) / 100
	}
	summary.TotalRevenue = math.Round(summary.TotalRevenue*100) / 100
	summary.TotalDiscounts = math.Round(summary.TotalDiscounts*100) / 100
	return summary
}

func payChannelText(channel int) string {
	switch channel {
	case models.PayChannelWallet:
		return "Wallet"
	case models.PayChannelAlipay:
		return "Alipay"
	default:
		return "Unknown"
	}
}

// Admin: Generate sales report with period filters and summary. Only orders
// that actually collected money count, so the window filters on pay_time.
func GenerateSalesReport(c *gin.Context) {
	utils.LogInfo("GenerateSalesReport called")

	period := c.DefaultQuery("period", "day")
	utils.LogDebug("Generating sales report for period: %s", period)

	startDate, endDate, ok := salesPeriodRange(c, period)
	if !ok {
		return
	}

	var orders []models.Order
	query := config.DB.Where("pay_time >= ? AND pay_time <= ?", startDate, endDate).
		Where("order_status IN ?", []int{models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusCompleted}).
		Preload("User").
		Order("pay_time DESC")
	if err := query.Find(&orders).Error; err != nil {
		utils.LogError("Failed to fetch orders: %v", err)
		utils.InternalServerError(c, "Failed to fetch orders", err.Error())
		return
	}
	utils.LogDebug("Retrieved %d paid orders for the period", len(orders))

	summary := summarizeSales(orders)

	var salesData []gin.H
	for _, order := range orders {
		paidAt := ""
		if order.PaidAt != nil {
			paidAt = order.PaidAt.Format("2006-01-02 15:04:05")
		}
		salesData = append(salesData, gin.H{
			"order_id":      order.OrderNo,
			"date":          paidAt,
			"customer_name": order.User.Username,
			"product":       order.ProductName,
			"quantity":      order.Quantity,
			"total":         math.Round(order.TotalAmount*100) / 100,
			"discount":      math.Round((order.TotalAmount-order.PayAmount)*100) / 100,
			"net_amount":    math.Round(order.PayAmount*100) / 100,
			"payment_mode":  payChannelText(order.PayChannel),
			"status":        models.OrderStatusText(order.Status),
		})
	}

	utils.LogInfo("Successfully generated sales report for period %s", period)
	utils.Success(c, "Sales report generated successfully", gin.H{
		"period": gin.H{
			"type":       period,
			"start_date": startDate.Format("2006-01-02 15:04:05"),
			"end_date":   endDate.Format("2006-01-02 15:04:05"),
		},
		"summary": summary,
		"sales":   salesData,
	})
}

// Admin: Download sales report as Excel
func DownloadSalesReportExcel(c *gin.Context) {
	utils.LogInfo("DownloadSalesReportExcel called")

	period := c.DefaultQuery("period", "day")
	utils.LogDebug("Generating Excel report for period: %s", period)

	startDate, endDate, ok := salesPeriodRange(c, period)
	if !ok {
		return
	}

	var orders []models.Order
	query := config.DB.Where("pay_time >= ? AND pay_time <= ?", startDate, endDate).
		Where("order_status IN ?", []int{models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusCompleted}).
		Preload("User").
		Order("pay_time DESC")
	if err := query.Find(&orders).Error; err != nil {
		utils.LogError("Failed to fetch orders: %v", err)
		utils.InternalServerError(c, "Failed to fetch orders", err.Error())
		return
	}
	utils.LogDebug("Retrieved %d paid orders for Excel report", len(orders))

	summary := summarizeSales(orders)

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Sales Report")
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", err.Error())
		return
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString("MALLSPHERE - Sales Report")
	titleRow = sheet.AddRow()
	titleRow.AddCell().SetString("Email: support@mallsphere.com")
	titleRow = sheet.AddRow()
	titleRow.AddCell().SetString("Period: " + strings.ToUpper(period) + " | " + startDate.Format("2006-01-02") + " to " + endDate.Format("2006-01-02"))
	sheet.AddRow() // spacing

	headers := []string{"Order No", "User ID", "User Name", "Paid At", "Product", "Quantity", "Total", "Discount", "Net Amount", "Payment Mode", "Status"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	for _, order := range orders {
		paidAt := ""
		if order.PaidAt != nil {
			paidAt = order.PaidAt.Format("2006-01-02 15:04")
		}
		row := sheet.AddRow()
		row.AddCell().SetString(order.OrderNo)
		row.AddCell().SetInt(int(order.UserID))
		row.AddCell().SetString(order.User.Username)
		row.AddCell().SetString(paidAt)
		row.AddCell().SetString(order.ProductName)
		row.AddCell().SetInt(order.Quantity)
		row.AddCell().SetFloat(order.TotalAmount)
		row.AddCell().SetFloat(order.TotalAmount - order.PayAmount)
		row.AddCell().SetFloat(order.PayAmount)
		row.AddCell().SetString(payChannelText(order.PayChannel))
		row.AddCell().SetString(models.OrderStatusText(order.Status))
	}

	sheet.AddRow() // spacing

	summaryRow := sheet.AddRow()
	summaryRow.AddCell().SetString("Summary")
	style := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	style.Font = *font
	summaryRow.Cells[0].SetStyle(style)

	summaryData := [][]string{
		{"Total Sales", fmt.Sprintf("%d", summary.TotalSales)},
		{"Total Revenue", fmt.Sprintf("%.2f", summary.TotalRevenue)},
		{"Total Items", fmt.Sprintf("%d", summary.TotalItems)},
		{"Total Customers", fmt.Sprintf("%d", summary.TotalCustomers)},
		{"Total Discounts", fmt.Sprintf("%.2f", summary.TotalDiscounts)},
		{"Avg. Order Value", fmt.Sprintf("%.2f", summary.AverageOrderVal)},
	}
	for _, data := range summaryData {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=sales_report_%s.xlsx", period))
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
		utils.InternalServerError(c, "Failed to write Excel file", err.Error())
		return
	}
	utils.LogInfo("Successfully generated Excel report for period %s", period)
}
