package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/dnghuy/vietcart-backend/api/routes"
	"github.com/dnghuy/vietcart-backend/internal/activitylog"
	cartsvc "github.com/dnghuy/vietcart-backend/internal/cart"
	"github.com/dnghuy/vietcart-backend/internal/catalog"
	checkoutsvc "github.com/dnghuy/vietcart-backend/internal/checkout"
	"github.com/dnghuy/vietcart-backend/internal/discounts"
	"github.com/dnghuy/vietcart-backend/internal/inventory"
	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/internal/localcart"
	"github.com/dnghuy/vietcart-backend/internal/orders"
	"github.com/dnghuy/vietcart-backend/internal/paymentmethods"
	"github.com/dnghuy/vietcart-backend/internal/shipping"
	"github.com/dnghuy/vietcart-backend/pkg/config"
	"github.com/dnghuy/vietcart-backend/pkg/db"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
	"github.com/dnghuy/vietcart-backend/pkg/migrate"
	pkgredis "github.com/dnghuy/vietcart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	deps, err := buildDeps(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(*deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
	shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	shutdownErr = multierr.Append(shutdownErr, dbClient.Close())
	if shutdownErr != nil {
		logg.Error(ctx, "shutdown finished with errors", shutdownErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *pkgredis.Client) (*routes.Deps, error) {
	gormDB := dbClient.DB()

	variantRepo := catalog.NewVariantRepository(gormDB)
	cartRepo := cartsvc.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	paymentRepo := paymentmethods.NewRepository(gormDB)
	shippingRepo := shipping.NewRepository(gormDB)

	localStore, err := localcart.NewStore(redisClient, logg, cfg.Checkout.LocalCartTTL)
	if err != nil {
		return nil, err
	}

	cartService, err := cartsvc.NewService(cartRepo, variantRepo, dbClient)
	if err != nil {
		return nil, err
	}

	reconciler, err := cartsvc.NewReconciler(cartRepo, variantRepo, localStore, dbClient, redisClient, cfg.Checkout.MergeGuardTTL, logg)
	if err != nil {
		return nil, err
	}

	ledgerService, err := ledger.NewService(ledgerRepo, orderRepo)
	if err != nil {
		return nil, err
	}

	activityService, err := activitylog.NewService(gormDB, logg)
	if err != nil {
		return nil, err
	}

	discountService, err := discounts.NewService(gormDB, nil)
	if err != nil {
		return nil, err
	}

	methods, err := checkoutsvc.NewMethods(paymentRepo, shippingRepo)
	if err != nil {
		return nil, err
	}

	checkoutManager, err := checkoutsvc.NewManager(cfg.Checkout.DraftTTL, methods, nil)
	if err != nil {
		return nil, err
	}

	placer, err := orders.NewPlacer(orderRepo, cartRepo, variantRepo, discountService, paymentRepo, shippingRepo, ledgerService, dbClient, logg, nil)
	if err != nil {
		return nil, err
	}

	lifecycle, err := orders.NewLifecycle(orderRepo, ledgerService, activityService, dbClient, logg, nil)
	if err != nil {
		return nil, err
	}

	lookup, err := orders.NewLookup(orderRepo)
	if err != nil {
		return nil, err
	}

	adjuster, err := inventory.NewAdjuster(ledgerService, dbClient)
	if err != nil {
		return nil, err
	}

	return &routes.Deps{
		Cfg:             cfg,
		Logg:            logg,
		DB:              dbClient,
		Redis:           redisClient,
		CartService:     cartService,
		CartReconciler:  reconciler,
		LocalCart:       localStore,
		CheckoutManager: checkoutManager,
		Placer:          placer,
		Lookup:          lookup,
		Lifecycle:       lifecycle,
		Ledger:          ledgerService,
		Adjuster:        adjuster,
		PaymentMethods:  paymentRepo,
		Shipping:        shippingRepo,
	}, nil
}
