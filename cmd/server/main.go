// Package main is the entry point for the ledger service. It connects the
// stores, wires the service graph, starts the pending-entry sweeper and
// serves HTTP until interrupted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"obata/internal/config"
	"obata/internal/repositories"
	"obata/internal/repositories/cache"
	"obata/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()

	// InitDB runs migrations before returning the handle.
	db, err := repositories.InitDB(repositories.DefaultDBConfig())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get database instance: %v", err)
	}
	defer sqlDB.Close()

	var cacheService *cache.CacheService
	if config.GetEnv("REDIS_DISABLED", "") != "true" {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:     config.GetEnv("REDIS_HOST", "localhost"),
			Port:     config.GetEnv("REDIS_PORT", "6379"),
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetIntEnv("REDIS_DB", 0),
		})
		cacheService = cache.NewCacheService(client, config.GetDurationEnv("CACHE_TTL", 10*time.Minute))
		if err := cacheService.HealthCheck(context.Background()); err != nil {
			log.Printf("redis unreachable, continuing without cache: %v", err)
			cacheService = nil
		} else {
			defer cacheService.Close()
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "obata",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("RATE_LIMIT_MAX", 60),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	}))

	services := routes.SetupRoutes(app, db, cacheService)

	// Sweep abandoned PENDING purchase debits in the background. Entries are
	// considered stale after SWEEP_MIN_AGE.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go services.Reconcile.Run(
		sweepCtx,
		config.GetDurationEnv("SWEEP_INTERVAL", 5*time.Minute),
		config.GetDurationEnv("SWEEP_MIN_AGE", 30*time.Minute),
	)

	go func() {
		if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	stopSweep()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
