package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chezgustave/ordering/internal/addresscheck"
	"github.com/chezgustave/ordering/internal/config"
	"github.com/chezgustave/ordering/internal/es"
	"github.com/chezgustave/ordering/internal/httpserver"
	"github.com/chezgustave/ordering/internal/logging"
	"github.com/chezgustave/ordering/internal/mykafka"
	"github.com/chezgustave/ordering/internal/repo"
	"github.com/chezgustave/ordering/internal/service/cart"
	"github.com/chezgustave/ordering/internal/service/coupon"
	"github.com/chezgustave/ordering/internal/service/fulfillment"
	"github.com/chezgustave/ordering/internal/service/order"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	r := repo.NewGormRepo(db)

	cartSvc := &cart.Service{Store: r, Catalog: r}
	couponSvc := &coupon.Service{Repo: r}
	selectors := fulfillment.NewRegistry(
		&fulfillment.Delivery{
			Checker:    &addresscheck.ZipPrefixValidator{Prefixes: configuration.DELIVERY_ZONES},
			DefaultFee: configuration.DEFAULT_DELIVERY_FEE,
		},
		&fulfillment.Pickup{},
	)
	orderSvc := &order.Service{
		Repo:         r,
		Cart:         cartSvc,
		Selectors:    selectors,
		TaxRate:      configuration.TAX_RATE,
		NumberPrefix: configuration.ORDER_NUMBER_PREFIX,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logging.IntoContext(req.Context(), logger)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		AuthHandler: &httpserver.AuthHandler{
			JWTSecret:    jwtSecret,
			OperatorUser: configuration.OPERATOR_USER,
			OperatorHash: configuration.OPERATOR_PASSWORD_HASH,
		},
		CartHandler:   &httpserver.CartHTTP{Svc: cartSvc, Producer: prod, JWTSecret: jwtSecret},
		OrderHandler:  &httpserver.OrderHTTP{Svc: orderSvc, Producer: prod, JWTSecret: jwtSecret},
		CouponHandler: &httpserver.CouponHTTP{Svc: couponSvc},
		MenuHandler:   &httpserver.MenuHTTP{Repo: r, Producer: prod, Index: "menu"},
	}

	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Printf("elasticsearch unavailable, search disabled: %v", err)
		} else {
			deps.MenuHandler.ES = client
		}
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
