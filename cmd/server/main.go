package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/milktrack/internal/config"
	"github.com/mamadbah2/milktrack/internal/domain/models"
	"github.com/mamadbah2/milktrack/internal/repository/local"
	"github.com/mamadbah2/milktrack/internal/repository/mongodb"
	"github.com/mamadbah2/milktrack/internal/repository/sheets"
	"github.com/mamadbah2/milktrack/internal/scheduler"
	"github.com/mamadbah2/milktrack/internal/server/handlers"
	"github.com/mamadbah2/milktrack/internal/server/router"
	dashboardsvc "github.com/mamadbah2/milktrack/internal/service/dashboard"
	ingestionsvc "github.com/mamadbah2/milktrack/internal/service/ingestion"
	reportingsvc "github.com/mamadbah2/milktrack/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/milktrack/pkg/clients/whatsapp"
	"github.com/mamadbah2/milktrack/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.NewWithLevel(cfg.Server.Env, cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := dashboardsvc.Options{
		Backend:   cfg.Storage.Backend,
		FeedLimit: cfg.Storage.FeedLimit,
		Location:  loc,
	}

	var ingestHandler *handlers.IngestionHandler
	switch cfg.Storage.Backend {
	case models.BackendRemote:
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		opts.Remote = mongoRepo

		ingestion := ingestionsvc.NewService(mongoRepo, baseLogger.Named("svc.ingestion"))
		ingestHandler = handlers.NewIngestionHandler(ingestion, baseLogger.Named("handlers.ingestion"))
	default:
		opts.Local = local.NewRepository(cfg.Storage.SnapshotPath, baseLogger.Named("repo.local"))
	}

	coordinator, err := dashboardsvc.NewCoordinator(opts, baseLogger.Named("svc.dashboard"))
	if err != nil {
		baseLogger.Fatal("failed to build dashboard coordinator", zap.Error(err))
	}
	if err := coordinator.Start(ctx); err != nil {
		baseLogger.Fatal("failed to start dashboard coordinator", zap.Error(err))
	}
	defer coordinator.Stop()

	reporter := buildReporter(ctx, cfg, coordinator, baseLogger)

	sched := scheduler.NewScheduler(cfg.Reporting, loc, coordinator, reporter, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	dashHandler := handlers.NewDashboardHandler(coordinator, cfg.Server.ClearConfirm, baseLogger.Named("handlers.dashboard"))
	engine := router.New(dashHandler, ingestHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", string(cfg.Storage.Backend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		baseLogger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		baseLogger.Error("server stopped with error", zap.Error(err))
	}
}

// buildReporter wires the optional summary sinks. It returns nil when
// neither WhatsApp nor Sheets is configured.
func buildReporter(ctx context.Context, cfg *config.Config, source reportingsvc.ViewSource, baseLogger *zap.Logger) scheduler.Reporter {
	var notifier reportingsvc.Notifier
	if cfg.WhatsAppEnabled() {
		notifier = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp daily summary enabled")
	}

	var store reportingsvc.SummaryStore
	if cfg.SheetsEnabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Error("sheets disabled, failed to init repository", zap.Error(err))
		} else {
			store = sheetsRepo
		}
	}

	if notifier == nil && store == nil {
		baseLogger.Warn("no summary sink configured, daily summary disabled")
		return nil
	}
	return reportingsvc.NewService(source, notifier, cfg.WhatsApp.ReportTo, store, baseLogger.Named("svc.reporting"))
}
