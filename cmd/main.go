package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/logger/pkg/logger"
	"github.com/cwrk-planet/realtime-service/config"
	"github.com/cwrk-planet/realtime-service/internal/postgres"
	"github.com/cwrk-planet/realtime-service/internal/security"
	"github.com/cwrk-planet/realtime-service/internal/service"
	grpcx "github.com/cwrk-planet/realtime-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/realtime-service/internal/transport/http"
	"github.com/cwrk-planet/realtime-service/internal/transport/ws"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting realtime-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos & store adapter ---
	roomRepo := postgres.NewRoomRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	chatSvc := service.NewChatService(roomRepo, chatRepo, userRepo)

	// --- credential verifier ---
	pub, err := security.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("auth public key: %v", err)
	}
	verifier := security.NewTokenVerifier(pub, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.AuthClockSkew())

	// --- broker core ---
	registry := ws.NewRegistry()
	subs := ws.NewSubscriptionIndex()
	presence := ws.NewPresenceBroadcaster(registry)
	locations := ws.NewLocationCache()
	router := ws.NewRouter(registry, subs, presence, locations, verifier, chatSvc)
	wsServer := ws.NewServer(registry, router, cfg.WS.MaxMessage)

	monitor := ws.NewLivenessMonitor(registry, router.Cleanup, cfg.PingInterval())
	go monitor.Run(ctx)

	// --- HTTP ---
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     httpx.NewRouter(wsServer, cfg.HTTP.AllowedOrigins),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// --- gRPC (health) ---
	grpcServer := grpcx.NewServer(grpcx.Options{
		Service:        cfg.Logging.Service,
		DefaultTimeout: cfg.GRPCDefaultTimeout(),
	})

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	cancel() // останавливает liveness monitor

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	grpcServer.GracefulStop()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
