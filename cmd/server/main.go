package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/foliotrack/internal/clients/yahoo"
	"github.com/aristath/foliotrack/internal/config"
	"github.com/aristath/foliotrack/internal/database"
	"github.com/aristath/foliotrack/internal/events"
	"github.com/aristath/foliotrack/internal/forex"
	"github.com/aristath/foliotrack/internal/marketdata"
	"github.com/aristath/foliotrack/internal/modules/ledger"
	"github.com/aristath/foliotrack/internal/modules/portfolio"
	"github.com/aristath/foliotrack/internal/modules/settings"
	"github.com/aristath/foliotrack/internal/modules/valuation"
	"github.com/aristath/foliotrack/internal/scheduler"
	"github.com/aristath/foliotrack/internal/server"
	"github.com/aristath/foliotrack/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting foliotrack")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Shared services
	evts := events.NewManager(log)
	yahooClient := yahoo.NewClient(log)
	converter := forex.NewConverter(yahooClient, log, forex.WithTTL(cfg.ForexCacheTTL), forex.WithEvents(evts))

	// Ledger and derived state
	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	ledgerService := ledger.NewService(ledgerRepo, converter, evts, log)

	tracker := portfolio.NewTracker(log, evts)
	ledgerRepo.Subscribe(tracker.Rebuild)

	// Prime the derived state from the stored ledger
	ops, err := ledgerRepo.List()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}
	tracker.Rebuild(ops)

	// Market data
	market := marketdata.NewService(yahooClient, evts, marketdata.Config{
		BatchSize:    cfg.FetchBatchSize,
		BatchDelay:   cfg.FetchBatchDelay,
		HistoryRange: cfg.HistoryRange,
	}, log)

	// Settings and valuation
	settingsRepo := settings.NewRepository(db.Conn(), log)
	valuationService := valuation.NewService(tracker, market, converter, settingsRepo, cfg.RiskFreeRate, log)

	// First fetch happens in the background; valuation degrades gracefully
	// until it lands.
	go market.Refresh(tracker.Tickers())

	// Scheduler
	sched := scheduler.New(log)
	refreshJob := scheduler.NewMarketRefreshJob(market, tracker, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register market refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		Log:        log,
		Ledger:     ledger.NewHandler(ledgerService, log),
		Portfolio:  portfolio.NewHandler(tracker, log),
		Valuation:  valuation.NewHandler(valuationService, log),
		MarketData: marketdata.NewHandler(market, tracker, func() error { return sched.RunNow(refreshJob) }, log),
		Settings:   settings.NewHandler(settingsRepo, log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
