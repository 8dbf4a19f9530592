package echoServer

import (
	"net/http"

	authctrl "github.com/6431503106/brselab/app/echoServer/controller/auth"
	categoryctrl "github.com/6431503106/brselab/app/echoServer/controller/category"
	generalctrl "github.com/6431503106/brselab/app/echoServer/controller/general"
	orderctrl "github.com/6431503106/brselab/app/echoServer/controller/order"
	productctrl "github.com/6431503106/brselab/app/echoServer/controller/product"
	"github.com/6431503106/brselab/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth     *authctrl.Controller
	Product  *productctrl.Controller
	Category *categoryctrl.Controller
	Order    *orderctrl.Controller
	General  *generalctrl.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)
	pub.GET("/products", c.Product.List)
	pub.GET("/products/:id", c.Product.Detail)
	pub.GET("/categories", c.Category.List)
	pub.POST("/contact-us", c.General.ContactUs)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))

	auth.POST("/orders", c.Order.Submit)
	auth.GET("/orders/my", c.Order.Mine)
	auth.GET("/orders/:id", c.Order.Detail)
	auth.POST("/products/:id/reviews", c.Product.AddReview)

	// Staff endpoints
	staff := auth.Group("", StaffOnly)
	staff.GET("/orders", c.Order.ListAll)
	staff.DELETE("/orders/:id", c.Order.Delete)
	staff.PUT("/orders/:id/borrow", c.Order.StampBorrowingDates)
	staff.PUT("/orders/:orderID/items/:itemID/status", c.Order.UpdateItemStatus)
	staff.PUT("/orders/:orderID/items/:itemID/return-date", c.Order.ChangeReturnDate)
	staff.DELETE("/orders/:orderID/items/:itemID", c.Order.RemoveItem)

	staff.POST("/products", c.Product.Create)
	staff.PUT("/products/:id", c.Product.Update)
	staff.DELETE("/products/:id", c.Product.Delete)
	staff.POST("/categories", c.Category.Create)

	staff.GET("/contact-us", c.General.Messages)
	staff.POST("/contact-us/handle", c.General.HandleMessage)
}

func StaffOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !jwtx.IsStaff(c) {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "staff only"})
		}
		return next(c)
	}
}
