// Command composer builds hotel recommendation PDFs from request files.
//
//	composer [flags] <file-or-dir>...
//
// Every .json/.yaml/.yml request found produces one PDF in the output
// directory. Failures of one file never stop the others; the exit code is 2
// when any build failed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"hotel_recs/internal/adapters/assets"
	"hotel_recs/internal/adapters/observability"
	redisad "hotel_recs/internal/adapters/redis"
	"hotel_recs/internal/app"
	"hotel_recs/internal/domain"
	"hotel_recs/internal/render"
	"hotel_recs/internal/shared"
	"hotel_recs/internal/storage/files"
	mysqlrepo "hotel_recs/internal/storage/mysql"
)

const (
	exitOK     = 0
	exitSetup  = 1
	exitFailed = 2
)

type options struct {
	output      string
	workers     int
	watermark   string
	noWatermark bool
	proxy       string
	timeout     time.Duration
	record      bool
	cache       bool
	verbose     bool
	quiet       bool
	inputs      []string
}

var errNoInputs = errors.New("at least one request file or directory is required")

func parseFlags(args []string, cfg shared.Config, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("composer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.output, "output", "o", cfg.OutputDir, "output directory for generated PDFs")
	fs.IntVarP(&o.workers, "workers", "w", cfg.Workers, "builds running at once")
	fs.StringVar(&o.watermark, "watermark", cfg.Watermark, "watermark text stamped on every page")
	fs.BoolVar(&o.noWatermark, "no-watermark", false, "disable the watermark")
	fs.StringVar(&o.proxy, "proxy", cfg.ProxyBase, "same-origin image proxy base URL (empty: direct fetch only)")
	fs.DurationVar(&o.timeout, "timeout", cfg.BuildTimeout, "time limit per build")
	fs.BoolVar(&o.record, "record", false, "record builds in the MySQL build log (MYSQL_DSN)")
	fs.BoolVar(&o.cache, "cache", false, "cache resolved images in Redis (REDIS_ADDR)")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "only log errors")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.inputs = fs.Args()
	if len(o.inputs) == 0 {
		return o, errNoInputs
	}
	if o.workers <= 0 {
		return o, fmt.Errorf("invalid worker count %d", o.workers)
	}
	if o.noWatermark {
		o.watermark = ""
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := shared.Load()
	o, err := parseFlags(args, cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitSetup
	}

	level := cfg.LogLevel
	switch {
	case o.verbose:
		level = "debug"
	case o.quiet:
		level = "error"
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, level)

	// container CPU quota, logged only in verbose mode
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
		log.Debug().Msgf(format, a...)
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var paths []string
	for _, in := range o.inputs {
		found, err := discoverRequests(in)
		if err != nil {
			log.Error().Err(err).Str("input", in).Msg("cannot read input")
			return exitSetup
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		log.Error().Strs("inputs", o.inputs).Msg("no request files found")
		return exitSetup
	}

	saver, err := files.NewSaver(o.output)
	if err != nil {
		log.Error().Err(err).Msg("output directory unusable")
		return exitSetup
	}

	var repo domain.BuildRepository
	if o.record {
		if cfg.MySQLDSN == "" {
			log.Error().Msg("--record needs MYSQL_DSN")
			return exitSetup
		}
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			return exitSetup
		}
		defer db.Close()
		repo = mysqlrepo.New(db)
	}

	var cache domain.Cache
	if o.cache {
		if cfg.RedisAddr == "" {
			log.Error().Msg("--cache needs REDIS_ADDR")
			return exitSetup
		}
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("redis unreachable")
			return exitSetup
		}
		cache = rc
	}

	client := assets.NewClient(cfg.AssetTimeout, cfg.AssetRPS, cfg.AssetTries)
	if cfg.AssetPrivate {
		log.Warn().Msg("ASSET_ALLOW_PRIVATE set: image fetches may reach internal addresses")
		client.AllowPrivateNetworks()
	}
	resolver := assets.NewResolver(client, cache, assets.Options{
		ProxyBase:      o.proxy,
		AttemptTimeout: cfg.AssetTimeout,
		MaxEdge:        cfg.AssetMaxEdge,
		CacheTTL:       cfg.AssetCacheTTL,
	})
	wm := render.DefaultWatermark()
	wm.Text = o.watermark
	svc := app.NewDocumentService(app.NewCompositor(resolver), render.NewEmitter(render.PDFSurfaceFactory, wm), repo).
		WithTimeout(o.timeout)

	log.Info().Int("files", len(paths)).Int("workers", o.workers).Str("output", saver.Dir()).Msg("composer starting")
	outcomes := runBatch(ctx, svc, saver, paths, o.workers)

	failed := 0
	for _, oc := range outcomes {
		if oc.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", oc.Path, oc.Err)
			continue
		}
		if !o.quiet {
			fmt.Fprintf(os.Stdout, "ok   %s -> %s (%d pages, %d images unavailable)\n", oc.Path, oc.Filename, oc.Pages, oc.Failed)
		}
	}
	log.Info().Int("ok", len(outcomes)-failed).Int("failed", failed).Msg("composer finished")
	if failed > 0 {
		return exitFailed
	}
	return exitOK
}
