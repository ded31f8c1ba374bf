package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/adapters/auth"
	"inmobiliaria/internal/adapters/blobstore"
	server "inmobiliaria/internal/adapters/http_server"
	"inmobiliaria/internal/adapters/observability"
	redisad "inmobiliaria/internal/adapters/redis"
	"inmobiliaria/internal/app"
	"inmobiliaria/internal/shared"
	mysqlrepo "inmobiliaria/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// redis: cache and image locks share one client
	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; cache and locks will fail until it is up")
	}
	cache := redisad.New(rdb)
	locker := redisad.NewLocker(rdb, cfg.LockTTL, cfg.LockWait)

	blobs, err := blobstore.New(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket, cfg.StorageRPS, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage client")
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.StorageBucket).Msg("could not ensure storage bucket")
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	// deps
	repo := mysqlrepo.New(db)
	h := &server.Handlers{
		Queries:   app.NewQueryService(repo, cache, cfg.CacheTTL),
		Catalog:   app.NewCatalogService(repo, repo, blobs, locker, cache),
		Images:    app.NewImageService(repo, repo, blobs, locker, cache),
		Inquiries: app.NewInquiryService(repo, repo),
		Agents:    app.NewAgentService(repo, cache),
		Tokens:    verifier,
	}

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdown); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
