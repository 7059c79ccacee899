package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/in/http"
	memory_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/memory"
	metrics_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/metrics"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-bank/pkg/config"
	"github.com/JoeShih716/go-mem-bank/pkg/logger"
)

const configPath = "config/config.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 載入設定
	cfg, err := config.Load(configPath, nil)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	log := logger.New(cfg.Service, level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 選擇交易帳本
	// ledgerCtx 在所有伺服器停止後才取消，讓 LMAX 輸送帶能處理完最後的請求
	ledgerCtx, stopLedger := context.WithCancel(context.Background())
	defer stopLedger()

	var ledger usecase.TransactionLedger
	switch cfg.Ledger.Mode {
	case config.LedgerModeMutex:
		ledger = memory_adapter.NewMutexLedger()
	case config.LedgerModeLMAX:
		lmax := memory_adapter.NewLMAXLedger(memory_adapter.WithQueueSize(cfg.Ledger.QueueSize))
		lmax.Start(ledgerCtx)
		ledger = lmax
	default:
		return fmt.Errorf("invalid ledger mode: %s", cfg.Ledger.Mode)
	}
	log.Info("transaction ledger ready", "mode", cfg.Ledger.Mode)

	// 3. 初始化 Store 與 UseCase
	store := memory_adapter.NewAccountStore(
		memory_adapter.WithEmailPolicy(domain.NewEmailPolicy(cfg.Email.AllowedDomains)),
	)
	opts := []usecase.EngineOption{usecase.WithLogger(log)}
	if cfg.MetricsEnabled() {
		recorder, err := metrics_adapter.NewRecorder(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, usecase.WithRecorder(recorder))
	}
	engine := usecase.NewLedgerEngine(store, ledger, opts...)

	// 4. 啟動伺服器
	g, gctx := errgroup.WithContext(ctx)

	grpcServer := grpc.NewServer()
	grpc_adapter.RegisterLedgerServiceServer(grpcServer, grpc_adapter.NewGrpcServer(engine, log))
	if cfg.ReflectionEnabled() {
		reflection.Register(grpcServer)
	}
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPC.Addr, err)
	}
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Addr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		grpcServer.GracefulStop()
		return nil
	})

	if cfg.HTTPEnabled() {
		app := http_adapter.NewApp(engine, log)
		g.Go(func() error {
			log.Info("starting HTTP server", "addr", cfg.HTTP.Addr)
			return app.Listen(cfg.HTTP.Addr)
		})
		g.Go(func() error {
			<-gctx.Done()
			return app.ShutdownWithTimeout(cfg.ShutdownTimeout)
		})
	}

	if cfg.MetricsEnabled() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		g.Go(func() error {
			log.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	// 5. 等待中斷訊號或任一伺服器失敗
	err = g.Wait()
	log.Info("servers stopped, draining ledger")
	stopLedger()
	if lmax, ok := ledger.(*memory_adapter.LMAXLedger); ok {
		<-lmax.Done()
	}
	log.Info("server exited")
	return err
}
