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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bnpl-ledger/internal/adapter/events"
	httpadp "bnpl-ledger/internal/adapter/http"
	idem "bnpl-ledger/internal/adapter/middleware"
	"bnpl-ledger/internal/adapter/oracle"
	"bnpl-ledger/internal/adapter/repository/gormdb"
	"bnpl-ledger/internal/config"
	"bnpl-ledger/internal/infrastructure/cache"
	"bnpl-ledger/internal/infrastructure/db"
	"bnpl-ledger/internal/metrics"
	"bnpl-ledger/internal/usecase/ledger"
	"bnpl-ledger/internal/usecase/trustscore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.DB.Driver, cfg.DSN(), cfg.DB.LogLevel)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	wallet := oracle.NewCachedWalletScorer(oracle.NewStaticWalletScorer(nil), rdb, cfg.Oracle.WalletScoreCacheTTL)
	zk := oracle.NewRedisVerifier(rdb, cfg.Oracle.ZKProofValidity)

	params := ledger.Params{
		RepaymentPeriod:      cfg.Ledger.RepaymentPeriod,
		GracePeriod:          cfg.Ledger.GracePeriod,
		EarlyThresholdWindow: cfg.Ledger.EarlyThresholdWindow,
		LatePenaltyPct:       cfg.Ledger.LatePenaltyPct,
		Admin:                cfg.Ledger.AdminAddress,
		Pool:                 cfg.Ledger.PoolAddress,
	}
	uc := ledger.NewUsecase(
		gormdb.NewGormUoW(gdb, cfg.Ledger.PoolAddress),
		trustscore.NewCalculator(wallet, zk),
		events.NewRedisStreamPublisher(rdb, cfg.Redis.Stream, cfg.Redis.StreamMaxLen),
		metrics.New(nil),
		params,
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	// routes
	httpadp.RegisterMetrics(e, promhttp.Handler())
	httpadp.Register(e,
		httpadp.NewHandler(map[string]httpadp.Check{
			"db":    sqlDB.PingContext,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		httpadp.NewLoanHandler(uc),
		httpadp.NewAdminHandler(uc, zk),
		idem.CallerMiddleware(),
		idem.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second),
	)

	addr := ":" + cfg.AppPort
	go func() {
		log.Printf("listening on %s (db=%s, admin=%s, pool=%s)", addr, cfg.DB.Driver, params.Admin, params.Pool)
		log.Printf("%s is taken as the caller identity without verification; expose this service only behind a gateway that sets it", idem.HeaderCallerID)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
