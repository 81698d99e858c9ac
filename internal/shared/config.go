package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string // empty disables the build log
	RedisAddr   string // empty disables caching
	RedisDB     int
	RedisPass   string

	ProxyBase      string // same-origin image proxy; empty means direct fetch only
	AssetTimeout   time.Duration
	AssetRPS       int
	AssetTries     int
	AssetMaxEdge   int
	AssetPrivate   bool // allow fetching from loopback/private addresses; development only
	AssetCacheTTL  time.Duration
	BuildTimeout   time.Duration
	Watermark      string
	Workers        int
	OutputDir      string
	ListingTTL     time.Duration
	RequestTimeout time.Duration
}

// Load reads the environment, after an optional .env in the working
// directory. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be read")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	secs := func(k string, def int) time.Duration { return time.Duration(atoi(k, def)) * time.Second }

	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", ""),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		ProxyBase:      strings.TrimRight(env("PROXY_BASE_URL", ""), "/"),
		AssetTimeout:   secs("ASSET_TIMEOUT_SECONDS", 10),
		AssetRPS:       atoi("ASSET_RPS", 5),
		AssetTries:     atoi("ASSET_TRIES", 3),
		AssetMaxEdge:   atoi("ASSET_MAX_EDGE", 1600),
		AssetPrivate:   env("ASSET_ALLOW_PRIVATE", "") == "true",
		AssetCacheTTL:  secs("ASSET_CACHE_TTL_SECONDS", 86400),
		BuildTimeout:   secs("BUILD_TIMEOUT_SECONDS", 120),
		Watermark:      envAllowEmpty("WATERMARK_TEXT", "CONFIDENTIAL"),
		Workers:        atoi("BUILD_WORKERS", 4),
		OutputDir:      env("OUTPUT_DIR", "out"),
		ListingTTL:     secs("LISTING_CACHE_TTL_SECONDS", 30),
		RequestTimeout: secs("HTTP_TIMEOUT_SECONDS", 0),
	}
	if c.RequestTimeout <= c.BuildTimeout {
		// requests must outlive the builds they run
		c.RequestTimeout = c.BuildTimeout + 10*time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envAllowEmpty keeps an explicitly empty value, so WATERMARK_TEXT= turns
// the watermark text off.
func envAllowEmpty(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}
