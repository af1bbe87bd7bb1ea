package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dorlov/fintrack/internal/config"
	"github.com/dorlov/fintrack/internal/currency"
	"github.com/dorlov/fintrack/internal/handler"
	"github.com/dorlov/fintrack/internal/integrations/ecb"
	"github.com/dorlov/fintrack/internal/integrations/exchangerate"
	"github.com/dorlov/fintrack/internal/middleware"
	"github.com/dorlov/fintrack/internal/migrate"
	"github.com/dorlov/fintrack/internal/repository"
	"github.com/dorlov/fintrack/internal/scheduler"
	"github.com/dorlov/fintrack/internal/service"
	"github.com/dorlov/fintrack/internal/utils/email"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if err := migrate.Run(db, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	rateSource := exchangerate.NewClient(cfg, logger)
	rates := currency.NewProvider(repo, rateSource, logger)
	authSvc := service.NewService(repo, logger, cfg)
	forecastSvc := service.NewForecastService(repo, rates, logger, cfg.DefaultCurrency)
	h := handler.NewHandler(authSvc, forecastSvc, rates, logger)

	// Periodic jobs: daily rate warm-up, monthly digest when SMTP is set
	var sender *email.Sender
	if cfg.SMTPHost != "" {
		sender = email.NewSender(cfg, logger)
	}
	jobs := scheduler.New(repo, ecb.NewClient(cfg, logger), forecastSvc, sender, logger)
	if err := jobs.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer jobs.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/api/rates", h.Rates).Methods("GET")
	r.HandleFunc("/api/rates/convert", h.Convert).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/api").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/forecast", h.Forecast).Methods("GET")
	authRouter.HandleFunc("/forecast/categories", h.ForecastByCategory).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
