package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lexflow/prazos/server/internal/advisor"
	"github.com/lexflow/prazos/server/internal/api"
	"github.com/lexflow/prazos/server/internal/auth"
	"github.com/lexflow/prazos/server/internal/calendar"
	"github.com/lexflow/prazos/server/internal/calendar/filestore"
	"github.com/lexflow/prazos/server/internal/calendar/sqlstore"
	"github.com/lexflow/prazos/server/internal/config"
	"github.com/lexflow/prazos/server/internal/deadline"
	"github.com/lexflow/prazos/server/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	slog.Info("prazos-server starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"calendar_source", cfg.Calendar.Source,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openCalendar(ctx, cfg.Calendar)
	if err != nil {
		slog.Error("failed to open calendar store", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := metrics.New()
	engine := deadline.New(calendar.NewLoader(store), cfg.Calendar.WindowFactor)
	adv := newAdvisor(ctx, cfg.Advisor, reg)

	// gRPC health service, guarded by the API key interceptor.
	var grpcSrv *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(
			auth.APIKeyInterceptor(cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key()),
		))
		hs := health.NewServer()
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(grpcSrv, hs)

		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		go func() {
			slog.Info("gRPC health service listening", "port", cfg.Server.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(engine, adv, reg))
	httpMux.Handle("/metrics", reg)

	authMW := auth.Middleware(auth.Options{
		Mode:   cfg.Server.Auth.Mode,
		Secret: cfg.Server.Auth.Secret(),
		Issuer: cfg.Server.Auth.Issuer,
		Header: cfg.Server.Auth.EffectiveHeader(),
		Key:    cfg.Server.Auth.Key(),
		Public: []string{"/api/v1/health", "/metrics"},
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           authMW(httpMux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("prazos-server shutting down")
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

// openCalendar returns the configured calendar store and its cleanup func.
func openCalendar(ctx context.Context, cfg config.CalendarConfig) (calendar.Store, func(), error) {
	switch cfg.Source {
	case "file":
		fs, err := filestore.New(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		go func() {
			if err := fs.Watch(ctx); err != nil {
				slog.Error("calendar watch stopped", "path", cfg.File, "err", err)
			}
		}()
		return fs, func() {}, nil

	default:
		dialect, err := sqlstore.ParseDialect(cfg.Database.Driver)
		if err != nil {
			return nil, nil, err
		}
		st, err := sqlstore.Open(ctx, dialect, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil //nolint:errcheck
	}
}

// newAdvisor builds the narrative advisor. Without an API key it returns an
// advisor that always answers with the fallback text.
func newAdvisor(ctx context.Context, cfg config.AdvisorConfig, reg *metrics.Registry) *advisor.Advisor {
	opts := []advisor.Option{
		advisor.WithTimeout(cfg.Timeout),
		advisor.WithFallbackCounter(reg),
	}
	if cfg.RatePerMinute > 0 {
		opts = append(opts, advisor.WithRateLimit(cfg.RatePerMinute, cfg.Burst))
	}

	if !cfg.Enabled {
		return advisor.New(nil, opts...)
	}
	key := cfg.APIKey()
	if key == "" {
		slog.Warn("advisor enabled but no API key set; using fallback text", "api_key_env", cfg.APIKeyEnv)
		return advisor.New(nil, opts...)
	}
	n, err := advisor.NewGeminiNarrator(ctx, key, cfg.Model)
	if err != nil {
		slog.Warn("advisor disabled", "err", err)
		return advisor.New(nil, opts...)
	}
	slog.Info("advisor enabled", "model", cfg.Model)
	return advisor.New(n, opts...)
}
