package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Haoran-716/MallSphere/config"
	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
)

// DownloadReceipt generates and returns a PDF receipt for a paid order
func DownloadReceipt(c *gin.Context) {
	utils.LogInfo("Starting receipt download process")

	userVal, exists := c.Get("user")
	if !exists {
		utils.LogError("Unauthorized receipt download attempt - no user found in context")
		utils.Unauthorized(c, "User not found")
		return
	}
	user := userVal.(models.User)

	orderNo := c.Param("order_no")
	utils.LogInfo("Processing receipt download for order %s", orderNo)

	var order models.Order
	if err := config.DB.Preload("User").Where("order_no = ? AND user_id = ?", orderNo, user.ID).First(&order).Error; err != nil {
		utils.LogError("Order not found for receipt download - Order: %s, User ID: %d", orderNo, user.ID)
		utils.NotFound(c, "Order not found")
		return
	}

	if order.Status == models.OrderStatusPending || order.Status == models.OrderStatusClosed {
		utils.BadRequest(c, "Receipt is only available for paid orders", nil)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Store info
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, "MallSphere")
	pdf.SetFont("Arial", "", 12)
	pdf.Ln(8)
	pdf.Cell(100, 8, "Email: support@mallsphere.com")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(95, 8, "Order No: "+order.OrderNo)
	pdf.Cell(60, 8, "Order Date: "+order.CreatedAt.Format("2006-01-02 15:04:05"))
	pdf.Ln(8)
	pdf.Cell(95, 8, "Payment Method: "+payChannelText(order.PayChannel))
	pdf.Cell(60, 8, "Status: "+models.OrderStatusText(order.Status))
	pdf.Ln(8)
	if order.TradeNo != "" {
		pdf.Cell(100, 8, "Gateway Trade No: "+order.TradeNo)
		pdf.Ln(8)
	}
	if order.PaidAt != nil {
		pdf.Cell(100, 8, "Paid At: "+order.PaidAt.Format("2006-01-02 15:04:05"))
		pdf.Ln(8)
	}
	pdf.Ln(2)

	// Customer info
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(100, 8, "Billed To:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(100, 8, order.User.Username)
	pdf.Ln(6)
	if order.User.Email != "" {
		pdf.Cell(100, 8, order.User.Email)
		pdf.Ln(6)
	}
	if order.ReceiverAddress != "" {
		pdf.Cell(100, 8, "Address: "+order.ReceiverAddress)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// Item table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(70, 8, "Product", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(70, 8, order.ProductName, "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, strconv.Itoa(order.Quantity), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", order.UnitPrice), "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", order.TotalAmount), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	// Summary
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(120, 8, "Subtotal:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", order.TotalAmount), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(120, 8, "Discount:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(30, 8, fmt.Sprintf("-%.2f", order.TotalAmount-order.PayAmount), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(120, 8, "Amount Paid:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", order.PayAmount), "", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(100, 8, "Thank you for shopping with MallSphere!")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.LogError("Failed to generate receipt PDF for order %s: %v", orderNo, err)
		utils.InternalServerError(c, "Failed to generate receipt", err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%s.pdf", order.OrderNo))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	utils.LogInfo("Receipt generated for order %s", orderNo)
}
