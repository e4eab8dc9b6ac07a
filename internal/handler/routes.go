package handler

import (
	"time"

	"order-service/internal/middleware"
	"order-service/internal/model"
	"order-service/internal/service"
	"order-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// Services bundles what the routes need
type Services struct {
	Auth     *service.AuthService
	Clients  *service.ClientService
	Products *service.ProductService
	Orders   *service.OrderService
	Invoices *service.InvoiceService
	Emails   *service.EmailService
	Reports  *service.ReportService
}

// RouteOptions tunes the public surface
type RouteOptions struct {
	LoginPerMinute int
}

// RegisterRoutes mounts the API on e
func RegisterRoutes(e *echo.Echo, s Services, j *jwtutil.JWTUtil, opts RouteOptions) {
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleEmpleado)
	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	api := e.Group("/api")

	authH := NewAuthHandler(s.Auth)
	auth := api.Group("/auth")
	if opts.LoginPerMinute > 0 {
		limit := middleware.RateLimitByIP(opts.LoginPerMinute, time.Minute)
		auth.POST("/login", authH.Login, limit)
		auth.POST("/register", authH.Register, limit)
	} else {
		auth.POST("/login", authH.Login)
		auth.POST("/register", authH.Register)
	}
	auth.GET("/me", authH.Me, middleware.JWTAuth(j))
	auth.POST("/users", authH.CreateUser, middleware.JWTAuth(j), adminOnly)

	// Everything below requires a token
	protected := api.Group("", middleware.JWTAuth(j))

	clientH := NewClientHandler(s.Clients)
	clients := protected.Group("/clients", staff)
	clients.GET("", clientH.List)
	clients.POST("", clientH.Create)
	clients.GET("/:id", clientH.Get)
	clients.PUT("/:id", clientH.Update)
	clients.DELETE("/:id", clientH.Delete, adminOnly)

	productH := NewProductHandler(s.Products)
	products := protected.Group("/products", staff)
	products.GET("", productH.List)
	products.POST("", productH.Create)
	products.GET("/:id", productH.Get)
	products.PUT("/:id", productH.Update)
	products.DELETE("/:id", productH.Delete, adminOnly)

	orderH := NewOrderHandler(s.Orders)
	orders := protected.Group("/orders", staff)
	orders.GET("", orderH.List)
	orders.POST("", orderH.Create)
	orders.GET("/:id", orderH.Get)
	orders.PUT("/:id", orderH.Update)
	orders.DELETE("/:id", orderH.Delete, adminOnly)

	invoiceH := NewInvoiceHandler(s.Invoices, s.Emails)
	invoices := protected.Group("/invoices", staff)
	invoices.GET("", invoiceH.List)
	invoices.POST("/generate", invoiceH.Generate)
	invoices.GET("/:id", invoiceH.Get)
	invoices.POST("/:id/send", invoiceH.Send)

	emailH := NewEmailLogHandler(s.Emails)
	emailLogs := protected.Group("/email-logs", adminOnly)
	emailLogs.GET("", emailH.List)
	emailLogs.GET("/:id", emailH.Get)

	reportH := NewReportHandler(s.Reports)
	reports := protected.Group("/reports", adminOnly)
	reports.GET("/ventas", reportH.Sales)
	reports.GET("/ventas-producto", reportH.SalesByProduct)
	reports.GET("/ventas-cliente", reportH.SalesByClient)
	reports.GET("/resumen", reportH.Summary)
}
