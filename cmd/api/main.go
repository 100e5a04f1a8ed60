package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/transitgo/transit_core/internal/api"
	"github.com/transitgo/transit_core/internal/cache"
	"github.com/transitgo/transit_core/internal/dataset"
	"github.com/transitgo/transit_core/internal/db"
	"github.com/transitgo/transit_core/internal/guide"
	"github.com/transitgo/transit_core/internal/middleware"
	"github.com/transitgo/transit_core/internal/storage"
)

func main() {
	log.Println("Starting transit API server...")

	doc, err := loadDocument()
	if err != nil {
		log.Fatalf("Failed to load network: %v", err)
	}

	g, err := guide.Load(doc)
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}
	log.Println("✓ Network loaded and routing tables precomputed")

	useCache := getEnv("CACHE_ENABLED", "true") == "true"
	var redisClient *redis.Client
	if useCache {
		redisClient, err = cache.GetClient()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
		log.Println("✓ Redis connection established")
	}

	api.Init(g, useCache)

	app := fiber.New(fiber.Config{
		AppName:      "Transit API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if redisClient != nil {
		app.Use(middleware.RateLimit(redisClient))
	}

	// Routes
	app.Get("/health", api.Health)
	app.Get("/v1/stop", api.StopInfo)
	app.Get("/v1/bus", api.BusInfo)
	app.Get("/v1/route", api.RouteSearch)
	app.Post("/v1/batch", api.Batch)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	port := getEnv("API_PORT", "8080")
	addr := fmt.Sprintf(":%s", port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("📍 Route search: http://localhost%s/v1/route?from=STOP&to=STOP", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadDocument reads the network either from a dataset file or from the
// database, depending on LOAD_FROM
func loadDocument() (*dataset.Document, error) {
	switch source := getEnv("LOAD_FROM", "file"); source {
	case "file":
		path := getEnv("DATASET_PATH", "dataset.json")
		log.Printf("Loading network from %s", path)
		return dataset.DecodeFile(path)
	case "db":
		pool, err := db.GetDB()
		if err != nil {
			return nil, err
		}
		log.Println("Loading network from database")
		return storage.NewStore(pool).LoadDocument(context.Background())
	default:
		return nil, fmt.Errorf("unknown LOAD_FROM value %q", source)
	}
}

// customErrorHandler handles errors returned from handlers
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
