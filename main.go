// Package main booklend API.
//
// @title           booklend API
// @version         1.0
// @description     catalog & lending service (books, users, rentals).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"booklend/app/echoServer"
	authctrl "booklend/app/echoServer/controller/auth"
	bookctrl "booklend/app/echoServer/controller/book"
	rentalctrl "booklend/app/echoServer/controller/rental"
	userctrl "booklend/app/echoServer/controller/user"
	"booklend/app/echoServer/validation"
	"booklend/config"
	"booklend/event"
	bookrepo "booklend/repository/book"
	rentalrepo "booklend/repository/rental"
	snapshotrepo "booklend/repository/snapshot"
	userrepo "booklend/repository/user"
	authsvc "booklend/service/auth"
	booksvc "booklend/service/book"
	rentalsvc "booklend/service/rental"
	snapshotsvc "booklend/service/snapshot"
	usersvc "booklend/service/user"
	"booklend/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	br := bookrepo.New(db)
	rr := rentalrepo.New(db)
	ur := userrepo.New(db)
	sr := snapshotrepo.New(db)

	// event bus + snapshot consumer
	bus := event.NewBus(log)
	defer bus.Close()
	snapshotsvc.New(br, sr, log).Register(bus)

	// services
	as := authsvc.New(ur, cfg.JWTSecret, cfg.JWTTTLHours)
	bs := booksvc.New(br)
	us := usersvc.New(ur)
	rentals := rentalsvc.New(rr, bus, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rentals, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Book:      bookC,
		User:      userC,
		Rental:    rentalC,
		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
