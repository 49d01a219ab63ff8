package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-gateway/internal/catalog"
	"catalog-gateway/internal/config"
	"catalog-gateway/internal/extractor"
	"catalog-gateway/internal/favorites"
	"catalog-gateway/internal/gateway"
	"catalog-gateway/internal/provider"
	"catalog-gateway/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("catalog-gateway: config: %v", err)
	}
	log, err := cfg.Logger()
	if err != nil {
		logrus.Fatalf("catalog-gateway: logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("catalog-gateway stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := favorites.AutoMigrate(ctx, pool); err != nil {
		return err
	}

	// Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gw := gateway.New(
		catalog.NewClient(cfg.CatalogURL),
		extractor.NewYTDLP(cfg.YtdlpPath, cfg.YtdlpCookies, log),
		gateway.Options{
			SearchLimit:      cfg.SearchLimit,
			HomeLimit:        cfg.HomeLimit,
			HomeRecQuery:     cfg.HomeRecQuery,
			HomeNewQuery:     cfg.HomeNewQuery,
			PlaceholderCover: cfg.PlaceholderCover,
		},
		log,
		gateway.NewMetrics(reg),
	)
	store := favorites.NewStore(pool)

	hub := realtime.NewHub()
	rt := realtime.NewServer(hub, rdb, gw, store, log, realtime.WithAllowedOrigins(cfg.AllowedOrigins))
	go hub.Run(ctx)
	go func() {
		if err := rt.RunRedisSubscriber(ctx); err != nil {
			log.WithError(err).Error("redis subscriber")
		}
	}()

	api := provider.NewServer(gw, store, rdb, provider.WithLogger(log), provider.WithMetrics(reg))
	r := newRouter(api, rt, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("catalog-gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("catalog-gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(api *provider.Server, rt *realtime.Server, cfg config.Config, log *logrus.Logger) chi.Router {
	r := api.Router(
		middleware.RequestID,
		provider.RealIP(cfg.TrustedProxies),
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}),
		middleware.Recoverer,
		provider.RateLimit(float64(cfg.RateLimitRPS)),
	)
	rt.Routes(r)
	return r
}
