package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/slicemill/pizza-order-service/internal/config"
	"github.com/slicemill/pizza-order-service/internal/database"
	"github.com/slicemill/pizza-order-service/internal/handler"
	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/observability"
	"github.com/slicemill/pizza-order-service/internal/queue"
	"github.com/slicemill/pizza-order-service/internal/repository"
	"github.com/slicemill/pizza-order-service/internal/router"
	"github.com/slicemill/pizza-order-service/internal/service"
	"github.com/slicemill/pizza-order-service/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(bootCtx, db); err != nil {
		log.Fatal().Err(err).Msg("database migrate failed")
	}
	adminHash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash default admin password failed")
	}
	if err := database.SeedAdmin(bootCtx, db, cfg.AdminName, cfg.AdminEmail, adminHash); err != nil {
		log.Fatal().Err(err).Msg("seed default admin failed")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable; rate limiting and menu cache disabled")
	}

	metrics := observability.NewMetrics(cfg.Observability, log)
	metrics.Start(context.Background())
	shipper := observability.NewLogShipper(cfg.Observability, log)

	users := repository.NewUserRepo(db)
	registry := repository.NewRegistry(repository.NewSessionRepo(db))
	franchises := repository.NewFranchiseRepo(db)
	menu := repository.NewMenuRepo(db)
	orders := repository.NewOrderRepo(db)

	factory := service.NewFactoryClient(cfg.FactoryURL, cfg.FactoryAPIKey, log, metrics)

	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(log, metrics, shipper))
	e.Use(middleware.Authenticate(cfg.JWTSecret, registry, log))

	authHandler := handler.NewAuthHandler(cfg, users, registry, metrics, log)
	franchiseHandler := handler.NewFranchiseHandler(franchises, users)
	orderHandler := handler.NewOrderHandler(menu, orders, factory, metrics, log, cacheCfg, rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, middleware.NewLoginLimiter(rateCfg, rdb))
	router.RegisterFranchise(e, franchiseHandler)
	router.RegisterOrder(e, orderHandler, middleware.NewResponseCache(cacheCfg, rdb, handler.MenuCacheKey))

	// Order events are consumed in-process; the consumer reconnects on
	// its own and never takes the server down.
	go func() {
		if err := queue.StartOrderConsumer(log); err != nil {
			log.Warn().Err(err).Msg("order consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
