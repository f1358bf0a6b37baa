package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"booklend/app/echoServer/controller/auth"
	"booklend/app/echoServer/controller/book"
	"booklend/app/echoServer/controller/rental"
	"booklend/app/echoServer/controller/user"
	"booklend/app/echoServer/jwtx"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	User      *user.Controller
	Rental    *rental.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/auth/register", c.Auth.Register)
	pub.POST("/auth/login", c.Auth.Login)

	// Auth
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))
	// caller identity extraction; role checks stay in the controllers
	authed.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			role, err := jwtx.RoleFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			ctx.Set("role", role)
			return next(ctx)
		}
	})

	// Books
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)
	// Admin endpoints
	authed.POST("/books", c.Book.Create)
	authed.PATCH("/books/:id", c.Book.Update)
	authed.DELETE("/books/:id", c.Book.Delete)

	// Users (admin)
	authed.POST("/users", c.User.Create)
	authed.GET("/users", c.User.List)
	authed.GET("/users/:id", c.User.Detail)
	authed.PATCH("/users/:id", c.User.Update)
	authed.DELETE("/users/:id", c.User.Delete)

	// Rentals
	authed.POST("/rentals/rent", c.Rental.Rent)
	authed.PATCH("/rentals/:id/return", c.Rental.Return)
	authed.GET("/rentals/my", c.Rental.MyRentals)
	authed.GET("/rentals", c.Rental.AllRentals)
}
