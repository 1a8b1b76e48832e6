package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-ib-service/internal/app/background"
	"github.com/LavaJover/shvark-ib-service/internal/app/setup"
	"github.com/LavaJover/shvark-ib-service/internal/config"
	"github.com/LavaJover/shvark-ib-service/internal/delivery/consumer"
	"github.com/LavaJover/shvark-ib-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-ib-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-ib-service/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	slog.SetDefault(logger.New(cfg.Env, cfg.LogConfig))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(cfg)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	uc, err := setup.InitializeUseCases(deps.Repositories, deps.Events, deps.Metrics, cfg.Commission, cfg.Reconcile)
	if err != nil {
		log.Fatalf("failed to init usecases: %v", err)
	}

	// HTTP admin API
	h := handlers.NewHandler(handlers.Services{
		IBRequests:  uc.IBRequestUsecase,
		Graph:       uc.GraphUsecase,
		Clients:     uc.ClientUsecase,
		Commission:  uc.CommissionUsecase,
		Withdrawals: uc.WithdrawalUsecase,
		Plans:       uc.PlanUsecase,
		Catalog:     uc.CatalogUsecase,
		Reconcile:   uc.ReconcileUsecase,
	})
	httpServer := &http.Server{
		Addr: fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: handlers.NewRouter(h, handlers.RouterConfig{
			AllowedOrigins: cfg.HTTPServer.AllowedOrigins,
			RequestTimeout: cfg.HTTPServer.RequestTimeout,
			Gatherer:       deps.Registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health
	var ping grpcapi.Pinger
	if deps.DB != nil {
		ping = func(ctx context.Context) error {
			sqlDB, err := deps.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	healthServer := grpcapi.NewHealthServer(ping, 15*time.Second)
	grpcServer := grpc.NewServer()
	healthServer.Register(grpcServer)
	go healthServer.Watch(ctx)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	go func() {
		slog.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "error", err.Error())
		}
	}()

	go func() {
		slog.Info("HTTP server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err.Error())
			stop()
		}
	}()

	// Trade volume consumer
	if deps.Subscriber != nil {
		tradeConsumer := consumer.NewTradeConsumer(
			deps.Subscriber,
			uc.CommissionUsecase,
			cfg.KafkaService.TradeTopic,
			cfg.KafkaService.GroupID,
		)
		go func() {
			if err := tradeConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("trade consumer stopped", "error", err.Error())
			}
		}()
	} else {
		slog.Warn("kafka disabled, trades are accepted over HTTP only")
	}

	// Periodic reconcile
	tasks := background.NewBackgroundTasks(uc.ReconcileUsecase, cfg.Reconcile.Interval)
	if cfg.Reconcile.Enabled {
		if err := tasks.StartAll(ctx); err != nil {
			log.Fatalf("failed to start background tasks: %v", err)
		}
	}

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := tasks.Shutdown(); err != nil {
		slog.Error("scheduler shutdown", "error", err.Error())
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "error", err.Error())
	}
	grpcServer.GracefulStop()
}
