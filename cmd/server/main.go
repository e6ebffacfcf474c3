package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/auth"
	"github.com/qrdine/qrdine/internal/billing"
	"github.com/qrdine/qrdine/internal/catalog"
	"github.com/qrdine/qrdine/internal/config"
	"github.com/qrdine/qrdine/internal/events"
	"github.com/qrdine/qrdine/internal/httpx"
	"github.com/qrdine/qrdine/internal/orders"
	"github.com/qrdine/qrdine/internal/storage"
	"github.com/qrdine/qrdine/internal/tables"
	"github.com/qrdine/qrdine/internal/websocket"
	"github.com/qrdine/qrdine/pkg/models"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			logger.Info("Database connection established")
			break
		}
		logger.Info("Waiting for database...")
		time.Sleep(2 * time.Second)
	}

	ctx := context.Background()
	if err := storage.CreateSchema(ctx, db); err != nil {
		logger.WithError(err).Fatal("Failed to create schema")
	}
	if err := storage.SeedDevKey(ctx, db, cfg.Auth.DevKey); err != nil {
		logger.WithError(err).Fatal("Failed to seed dev key")
	}

	store := storage.New(db)

	// Services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, 24*time.Hour)
	authSvc := auth.NewService(logger, tokens)
	engine := billing.NewEngine(logger)
	orderSvc := orders.NewService(logger, engine)
	tableSvc := tables.NewService(logger)
	catalogSvc := catalog.NewService(logger)

	// Handlers
	authHandler := auth.NewHandler(store, authSvc, logger)
	billHandler := billing.NewHandler(store, engine, logger)
	orderHandler := orders.NewHandler(store, orderSvc, logger)
	tableHandler := tables.NewHandler(store, tableSvc, logger)
	catalogHandler := catalog.NewHandler(store, catalogSvc, logger)

	// Kitchen live feed
	hub := websocket.NewHub(logger)
	go hub.Run()
	orderHandler.SetWebSocketHub(hub)
	tableHandler.SetWebSocketHub(hub)

	// Kafka producer is optional; the service runs without a broker.
	if cfg.Kafka.Enabled {
		producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		orderHandler.SetEventPublisher(producer)
		tableHandler.SetEventPublisher(producer)
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck(db)).Methods("GET")
	router.HandleFunc("/ws/kitchen", hub.HandleWebSocket)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Public: QR-scan session discovery and guest order placement.
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/scan", orderHandler.Scan).Methods("GET")
	api.HandleFunc("/orders", orderHandler.CreateOrder).Methods("POST")

	// Staff-only surface.
	staff := api.NewRoute().Subrouter()
	staff.Use(auth.Middleware(tokens, logger))

	staff.HandleFunc("/orders", orderHandler.ListOrders).Methods("GET")
	staff.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
	staff.HandleFunc("/orders/{id}", orderHandler.UpdateOrder).Methods("PUT")
	staff.HandleFunc("/orders/{id}", orderHandler.DeleteOrder).Methods("DELETE")

	staff.HandleFunc("/bills/{id}", billHandler.GetBill).Methods("GET")
	staff.HandleFunc("/bills/{id}", billHandler.UpdateBill).Methods("PUT")

	staff.HandleFunc("/tables", tableHandler.CreateTable).Methods("POST")
	staff.HandleFunc("/tables", tableHandler.ListTables).Methods("GET")
	staff.HandleFunc("/tables/{id}", tableHandler.GetTable).Methods("GET")
	staff.HandleFunc("/tables/{id}", tableHandler.UpdateTable).Methods("PUT")
	staff.HandleFunc("/tables/{id}", tableHandler.DeleteTable).Methods("DELETE")
	staff.HandleFunc("/tables/{id}/orders", tableHandler.TableOrders).Methods("GET")
	staff.HandleFunc("/tables/{id}/generate-bill", tableHandler.GenerateBill).Methods("POST")

	staff.HandleFunc("/dishes", catalogHandler.CreateDish).Methods("POST")
	staff.HandleFunc("/dishes", catalogHandler.ListDishes).Methods("GET")
	staff.HandleFunc("/dishes/{id}", catalogHandler.GetDish).Methods("GET")
	staff.HandleFunc("/dishes/{id}", catalogHandler.UpdateDish).Methods("PUT")
	staff.HandleFunc("/dishes/{id}", catalogHandler.DeleteDish).Methods("DELETE")
	staff.HandleFunc("/dishes/{id}/offers/{offerId}", catalogHandler.ApplyOffer).Methods("POST")
	staff.HandleFunc("/dishes/{id}/offers", catalogHandler.RemoveOffer).Methods("DELETE")

	staff.HandleFunc("/categories", catalogHandler.CreateCategory).Methods("POST")
	staff.HandleFunc("/categories", catalogHandler.ListCategories).Methods("GET")
	staff.HandleFunc("/categories/{id}", catalogHandler.DeleteCategory).Methods("DELETE")

	staff.HandleFunc("/ingredients", catalogHandler.CreateIngredient).Methods("POST")
	staff.HandleFunc("/ingredients", catalogHandler.ListIngredients).Methods("GET")
	staff.HandleFunc("/ingredients/{id}", catalogHandler.DeleteIngredient).Methods("DELETE")

	staff.HandleFunc("/offers", catalogHandler.CreateOffer).Methods("POST")
	staff.HandleFunc("/offers", catalogHandler.ListOffers).Methods("GET")
	staff.HandleFunc("/offers/{id}", catalogHandler.DeleteOffer).Methods("DELETE")

	// Super-admin surface: hotel-owner approval.
	admin := staff.NewRoute().Subrouter()
	admin.Use(auth.RequireRole(models.RoleSuperAdmin))
	admin.HandleFunc("/users", authHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/approve", authHandler.ApproveUser).Methods("POST")

	router.Use(httpx.LoggingMiddleware(logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting order management server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func healthCheck(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "order-management",
			})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "order-management",
		})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
