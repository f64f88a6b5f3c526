package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/handlers"
	"github.com/Skotchmaster/shop_api/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	AuthMW         *auth.Middleware
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1", d.AuthMW.Authenticate)

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, auth.RequireAdmin)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, auth.RequireAdmin)
	products.PATCH("/:id", d.ProductHandler.PatchProduct, auth.RequireAdmin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, auth.RequireAdmin)

	orders := v1.Group("/orders", auth.RequireUser)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id", d.OrderHandler.UpdateOrder)
	orders.PATCH("/:id", d.OrderHandler.UpdateOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)
}
