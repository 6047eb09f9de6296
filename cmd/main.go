package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notgodfather/canteenapp/internal/config"
	"github.com/notgodfather/canteenapp/internal/db"
	"github.com/notgodfather/canteenapp/internal/events"
	httpserver "github.com/notgodfather/canteenapp/internal/http"
	"github.com/notgodfather/canteenapp/internal/menu"
	"github.com/notgodfather/canteenapp/internal/order"
	"github.com/notgodfather/canteenapp/internal/payment"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[canteen] ", log.LstdFlags|log.Lmicroseconds)

	// DB
	database := db.MustOpen(cfg.DatabaseDSN)
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	orderRepo := order.NewRepository(database)
	menuRepo := menu.NewRepository(database)

	// RabbitMQ
	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("rabbit publisher: %v", err)
	}
	defer publisher.Close()

	// Context for consumer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := events.StartKitchenConsumer(ctx, rabbitConn, logger); err != nil {
		logger.Fatalf("start consumer: %v", err)
	}

	// Payment gateway
	gateway := payment.NewClient(payment.Config{
		Mode:         cfg.GatewayMode,
		ClientID:     cfg.GatewayClientID,
		ClientSecret: cfg.GatewayClientSecret,
		APIVersion:   cfg.GatewayAPIVersion,
	}, &http.Client{Timeout: cfg.GatewayTimeout})

	orderSvc := order.NewService(gateway, orderRepo, publisher, cfg.PublicBaseURL, logger)

	// HTTP
	router := httpserver.NewRouter(httpserver.Deps{
		Logger:           logger,
		OrderService:     orderSvc,
		OrderRepo:        orderRepo,
		MenuRepo:         menuRepo,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s (%s mode)", cfg.PublicBaseURL, cfg.GatewayMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
}
