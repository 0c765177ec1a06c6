package routes

import (
	"github.com/Haoran-716/MallSphere/controllers"
	"github.com/Haoran-716/MallSphere/middleware"
	"github.com/gin-gonic/gin"
)

// initAdminRoutes initializes all admin-related routes
func initAdminRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		// User management
		admin.GET("/users", controllers.ListUsers)
		admin.PATCH("/users/:id/block", controllers.BlockUser)

		// Order fulfilment
		admin.PATCH("/orders/:order_no/ship", controllers.UpdateOrderShipping)

		// Sales reporting
		admin.GET("/sales/report", controllers.GenerateSalesReport)
		admin.GET("/sales/report/excel", controllers.DownloadSalesReportExcel)
	}
}
