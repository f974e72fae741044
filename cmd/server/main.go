package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/yogitridirgantara/POS-DR/internal/cache"
	h "github.com/yogitridirgantara/POS-DR/internal/http"
	"github.com/yogitridirgantara/POS-DR/internal/publisher"
	"github.com/yogitridirgantara/POS-DR/internal/repository"
	"github.com/yogitridirgantara/POS-DR/internal/service"
	"github.com/yogitridirgantara/POS-DR/internal/session"
	"github.com/yogitridirgantara/POS-DR/pkg/metrics"
)

type Config struct {
	HTTPPort        string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	MigrationsDir   string
	RedisAddr       string
	KafkaBrokers    []string
	KafkaTopic      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnvInt("DB_PORT", 5432),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "pos"),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "./migrations"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", publisher.DefaultTopic),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	cfg := loadConfig()

	cred := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDir,
	}
	repo, err := repository.NewRepository(cred)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cred); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	productCache := cache.NewRedisCache(redisClient)
	catalog := service.NewCatalogService(repo, productCache)
	reports := service.NewReportService(repo)

	sessions := session.NewMemoryStore(repo)
	defer sessions.Close()

	salePublisher := publisher.NewSalePublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer salePublisher.Close()
	if !salePublisher.Enabled() {
		log.Println("no kafka brokers configured, sale events disabled")
	}

	serverMetrics := metrics.NewServerMetrics("server")

	productHandler := h.NewProductHandler(catalog, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(sessions, catalog, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(cartHandler, salePublisher, serverMetrics, cfg.RequestTimeout)
	reportHandler := h.NewReportHandler(reports, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.MetricsMiddleware(serverMetrics))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{product_id}", productHandler.Get)
			r.Put("/{product_id}", productHandler.Update)
			r.Delete("/{product_id}", productHandler.Delete)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cartHandler.CreateSession)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/cart", cartHandler.GetCart)
				r.Post("/cart/items", cartHandler.AddItem)
				r.Put("/cart/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/cart/items/{product_id}", cartHandler.RemoveItem)
				r.Put("/cart/customer", cartHandler.SetCustomer)

				r.Post("/checkout", checkoutHandler.Begin)
				r.Post("/checkout/confirm", checkoutHandler.Confirm)
				r.Post("/checkout/cancel", checkoutHandler.Cancel)
			})
		})

		r.Get("/transactions", reportHandler.Transactions)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", reportHandler.Daily)
			r.Get("/products", reportHandler.TopProducts)
			r.Get("/customers", reportHandler.Customers)
			r.Get("/export", reportHandler.ExportCSV)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("POS server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
