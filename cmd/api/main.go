package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fxsim/internal/analysis"
	"fxsim/internal/config"
	"fxsim/internal/health"
	"fxsim/internal/httpserver"
	"fxsim/internal/ledger"
	"fxsim/internal/rates"
	"fxsim/internal/stream"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	initialBalance, err := decimal.NewFromString(cfg.InitialBalance)
	if err != nil {
		logger.Fatal("invalid INITIAL_BALANCE", zap.Error(err))
	}

	seed := cfg.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rateProvider := rates.NewProvider(rand.New(rand.NewSource(seed)))
	analysisProvider := analysis.NewCanned(rateProvider, rand.New(rand.NewSource(seed+1)))
	ledgerSvc := ledger.NewService(rateProvider, initialBalance)

	bus := stream.NewBus()
	stream.StartPublisher(bus, rateProvider, time.Second)

	startedAt := time.Now().UTC()
	router := httpserver.NewRouter(httpserver.RouterDeps{
		RatesHandler:    rates.NewHandler(rateProvider),
		AnalysisHandler: analysis.NewHandler(analysisProvider),
		LedgerHandler:   ledger.NewHandler(ledgerSvc),
		HealthHandler:   health.NewHandler(startedAt, cfg.HTTPAddr, cfg.InternalToken),
		StreamWS:        stream.NewWSHandler(bus, cfg.WebSocketOrigin),
		Logger:          logger,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	logger.Info("server listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("initial_balance", initialBalance.String()),
	)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
