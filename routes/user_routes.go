package routes

import (
	"github.com/Haoran-716/MallSphere/controllers"
	"github.com/Haoran-716/MallSphere/middleware"
	"github.com/gin-gonic/gin"
)

// initUserRoutes initializes all user-facing routes
func initUserRoutes(router *gin.RouterGroup) {
	// Public routes (no authentication required)
	router.POST("/register", controllers.Register)
	router.POST("/login", controllers.Login)

	router.GET("/products", controllers.ListProducts)
	router.GET("/products/:id", controllers.GetProduct)
	router.GET("/products/:id/image", controllers.GetProductImage)
	router.GET("/search/products", controllers.GetProductByName)

	// Authenticated routes
	user := router.Group("")
	user.Use(middleware.AuthMiddleware())
	{
		user.GET("/profile", controllers.GetProfile)
		user.PUT("/profile", controllers.UpdateProfile)
		user.GET("/wallet", controllers.GetWallet)

		user.POST("/cart", controllers.AddToCart)
		user.GET("/cart", controllers.GetCart)
		user.DELETE("/cart", controllers.ClearCart)

		user.POST("/orders", controllers.CreateOrder)
		user.GET("/orders", controllers.ListOrders)
		user.GET("/orders/:order_no", controllers.GetOrderDetail)
		user.DELETE("/orders/:order_no", controllers.DestroyOrder)
		user.POST("/orders/:order_no/purchase", controllers.PurchaseOrder)
		user.POST("/orders/:order_no/confirm", controllers.ConfirmOrderReceived)
		user.GET("/orders/:order_no/receipt", controllers.DownloadReceipt)

		user.POST("/pay/alipay", controllers.InitiateAlipayPayment)
		user.GET("/pay/alipay/status/:order_no", controllers.QueryOrderStatus)
		user.POST("/pay/alipay/sync", controllers.SyncOrders)
	}
}
