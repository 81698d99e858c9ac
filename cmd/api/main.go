package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_recs/internal/adapters/assets"
	server "hotel_recs/internal/adapters/http_server"
	"hotel_recs/internal/adapters/observability"
	redisad "hotel_recs/internal/adapters/redis"
	"hotel_recs/internal/app"
	"hotel_recs/internal/domain"
	"hotel_recs/internal/render"
	"hotel_recs/internal/shared"
	mysqlrepo "hotel_recs/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// build log (optional)
	var (
		repo domain.BuildRepository
		db   *sql.DB
	)
	if cfg.MySQLDSN != "" {
		var err error
		db, err = mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer db.Close()
		repo = mysqlrepo.New(db)
		log.Info().Msg("database connection ok")
	}

	// cache (optional)
	var (
		cache domain.Cache
		rc    *redisad.Cache
	)
	if cfg.RedisAddr != "" {
		rc = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}

	// deps
	client := assets.NewClient(cfg.AssetTimeout, cfg.AssetRPS, cfg.AssetTries)
	if cfg.AssetPrivate {
		log.Warn().Msg("ASSET_ALLOW_PRIVATE set: image fetches may reach internal addresses")
		client.AllowPrivateNetworks()
	}
	resolver := assets.NewResolver(client, cache, assets.Options{
		ProxyBase:      cfg.ProxyBase,
		AttemptTimeout: cfg.AssetTimeout,
		MaxEdge:        cfg.AssetMaxEdge,
		CacheTTL:       cfg.AssetCacheTTL,
	})
	wm := render.DefaultWatermark()
	wm.Text = cfg.Watermark
	docs := app.NewDocumentService(app.NewCompositor(resolver), render.NewEmitter(render.PDFSurfaceFactory, wm), repo).
		WithCache(cache, cfg.ListingTTL).
		WithTimeout(cfg.BuildTimeout)

	// http
	srv := server.New(cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Docs:   docs,
		Images: server.NewImageProxy(client, cache, cfg.AssetCacheTTL),
		Health: func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if rc != nil {
				return rc.Ping(ctx)
			}
			return nil
		},
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(sctx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("proxy", cfg.ProxyBase).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
