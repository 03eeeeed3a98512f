package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cedarhouse/menu-api/internal/catalog"
	"github.com/cedarhouse/menu-api/internal/handlers"
	"github.com/cedarhouse/menu-api/internal/platform/config"
	"github.com/cedarhouse/menu-api/internal/platform/gcfs"
	"github.com/cedarhouse/menu-api/internal/platform/observability"
	"github.com/cedarhouse/menu-api/internal/platform/session"
	"github.com/cedarhouse/menu-api/internal/presenter"
	"github.com/cedarhouse/menu-api/internal/repositories"
	firestoreRepo "github.com/cedarhouse/menu-api/internal/repositories/firestore"
	"github.com/cedarhouse/menu-api/internal/repositories/memory"
	"github.com/cedarhouse/menu-api/internal/repositories/sqlite"
	"github.com/cedarhouse/menu-api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("menu-api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	catalogStore, err := catalog.LoadDir(cfg.Catalog.Dir)
	if err != nil {
		logger.Fatal("failed to load menu catalog", zap.Error(err), zap.String("dir", cfg.Catalog.Dir))
	}
	logger.Info("menu catalog loaded", zap.Strings("pages", catalogStore.Pages()))

	cartRepo, cleanup, err := newCartRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise cart repository", zap.Error(err))
	}
	defer cleanup()

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Repository: cartRepo,
		Catalog:    catalogStore,
		Discounts:  cfg.Cart.Discounts,
		Clock:      time.Now,
		Logger:     newLoggerFunc(logger.Named("cart")),
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	menuService, err := services.NewMenuService(services.MenuServiceDeps{
		Catalog: catalogStore,
		Logger:  newLoggerFunc(logger.Named("menu")),
	})
	if err != nil {
		logger.Fatal("failed to initialise menu service", zap.Error(err))
	}

	detailService, err := services.NewDetailService(services.DetailServiceDeps{
		Catalog:         catalogStore,
		Clock:           time.Now,
		CollapseCleanup: cfg.Detail.CollapseCleanup,
		PriceFormatter:  presenter.FormatPrice,
	})
	if err != nil {
		logger.Fatal("failed to initialise detail service", zap.Error(err))
	}

	feedbackService, err := services.NewFeedbackService(services.FeedbackServiceDeps{
		Timings: services.FeedbackTimings{
			TransitDelay: cfg.Feedback.TransitDelay,
			BounceDelay:  cfg.Feedback.BounceDelay,
			ToastVisible: cfg.Feedback.ToastVisible,
			ToastExit:    cfg.Feedback.ToastExit,
		},
	})
	if err != nil {
		logger.Fatal("failed to initialise feedback service", zap.Error(err))
	}

	contactService, err := services.NewContactService(services.ContactServiceDeps{
		SubmitDelay: cfg.Contact.SubmitDelay,
		Clock:       time.Now,
		Logger:      newLoggerFunc(logger.Named("contact")),
	})
	if err != nil {
		logger.Fatal("failed to initialise contact service", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		session.Middleware(session.Options{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
		}),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthVersion(buildVersion()),
		handlers.WithReadinessCheck("cart_store", cartStoreCheck(cartRepo)),
	)

	menuHandlers := handlers.NewMenuHandlers(menuService)
	cartHandlers := handlers.NewCartHandlers(cartService, feedbackService)
	detailHandlers := handlers.NewDetailHandlers(detailService)
	feedbackHandlers := handlers.NewFeedbackHandlers(feedbackService)
	contactHandlers := handlers.NewContactHandlers(contactService)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithMenuRoutes(menuHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithDetailRoutes(detailHandlers.Routes),
		handlers.WithFeedbackRoutes(feedbackHandlers.Routes),
		handlers.WithContactRoutes(contactHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("menu api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newCartRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.CartRepository, func(), error) {
	switch cfg.Repository.Backend {
	case config.BackendMemory:
		repo := memory.NewCartRepository()
		return repo, func() {}, nil

	case config.BackendSQLite:
		repo, err := sqlite.NewCartRepository(cfg.Repository.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := repo.Close(context.Background()); err != nil {
				logger.Warn("sqlite close error", zap.Error(err))
			}
		}
		return repo, cleanup, nil

	case config.BackendFirestore:
		provider := gcfs.NewProvider(gcfs.Settings{
			ProjectID:    cfg.Firestore.ProjectID,
			EmulatorHost: cfg.Firestore.EmulatorHost,
		})
		if _, err := provider.Client(ctx); err != nil {
			return nil, nil, err
		}
		repo, err := firestoreRepo.NewCartRepository(provider)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Close(closeCtx); err != nil {
				logger.Warn("firestore close error", zap.Error(err))
			}
		}
		return repo, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown repository backend %q", cfg.Repository.Backend)
	}
}

// cartStoreCheck reads from the cart backend with a read. A missing record still
// proves the store is reachable.
func cartStoreCheck(repo repositories.CartRepository) handlers.ReadinessCheck {
	return func(ctx context.Context) error {
		_, err := repo.Load(ctx, "readiness-check")
		if err == nil || repositories.IsNotFound(err) {
			return nil
		}
		return err
	}
}

func newLoggerFunc(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func buildVersion() string {
	if v := os.Getenv("MENU_BUILD_VERSION"); v != "" {
		return v
	}
	return "dev"
}
