package assets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_recs/internal/adapters/observability"
	"hotel_recs/internal/domain"
)

type Options struct {
	ProxyBase      string        // e.g. https://ops.example.com; empty disables the proxy attempt
	AttemptTimeout time.Duration // per stage
	MaxEdge        int           // downsample bound in pixels
	CacheTTL       time.Duration
}

// Resolver implements domain.AssetResolver: same-origin proxy first, direct
// fetch second. Resolve never fails; both attempts failing yields a Failed
// asset and a log line naming the URL and stage.
type Resolver struct {
	client *Client
	cache  domain.Cache // optional
	opts   Options
}

func NewResolver(c *Client, cache domain.Cache, opts Options) *Resolver {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	if opts.MaxEdge <= 0 {
		opts.MaxEdge = 1600
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	opts.ProxyBase = strings.TrimRight(opts.ProxyBase, "/")
	if opts.ProxyBase != "" {
		c.TrustHost(opts.ProxyBase)
	}
	return &Resolver{client: c, cache: cache, opts: opts}
}

var errNoProxy = errors.New("no proxy configured")

func (r *Resolver) Resolve(ctx context.Context, src string) domain.ImageAsset {
	key := assetKey(src)
	if r.cache != nil {
		var hit decoded
		if ok, err := r.cache.Get(ctx, key, &hit); err == nil && ok && len(hit.Data) > 0 {
			observability.ObserveAsset(domain.StageCache, "loaded")
			return loadedAsset(src, domain.StageCache, hit)
		}
	}

	stage := domain.StageProxy
	raw, err := r.viaProxy(ctx, src)
	if err != nil {
		if !errors.Is(err, errNoProxy) {
			log.Warn().Str("url", src).Str("stage", domain.StageProxy).Err(err).Msg("image fetch failed")
			observability.ObserveAsset(domain.StageProxy, "failed")
		}
		stage = domain.StageDirect
		raw, err = r.direct(ctx, src)
	}
	if err != nil {
		log.Warn().Str("url", src).Str("stage", stage).Err(err).Msg("image unavailable")
		observability.ObserveAsset(stage, "failed")
		return domain.FailedAsset(src, stage, err)
	}

	img, err := decodeImage(raw, r.opts.MaxEdge)
	if err != nil {
		log.Warn().Str("url", src).Str("stage", domain.StageDecode).Err(err).Msg("image unavailable")
		observability.ObserveAsset(domain.StageDecode, "failed")
		return domain.FailedAsset(src, domain.StageDecode, err)
	}
	if r.cache != nil {
		_ = r.cache.Set(ctx, key, img, int(r.opts.CacheTTL.Seconds()))
	}
	observability.ObserveAsset(stage, "loaded")
	return loadedAsset(src, stage, img)
}

func (r *Resolver) viaProxy(ctx context.Context, src string) ([]byte, error) {
	if r.opts.ProxyBase == "" {
		return nil, errNoProxy
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.AttemptTimeout)
	defer cancel()
	b, _, err := r.client.Fetch(ctx, domain.StageProxy, ProxyURL(r.opts.ProxyBase, src))
	return b, err
}

func (r *Resolver) direct(ctx context.Context, src string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.AttemptTimeout)
	defer cancel()
	b, _, err := r.client.Fetch(ctx, domain.StageDirect, src)
	return b, err
}

// ProxyURL is the same-origin proxy address for src.
func ProxyURL(base, src string) string {
	return base + "/proxy-image?url=" + url.QueryEscape(src)
}

func loadedAsset(src, stage string, d decoded) domain.ImageAsset {
	return domain.ImageAsset{
		SourceURL: src,
		Status:    domain.AssetLoaded,
		Data:      d.Data,
		Width:     d.Width,
		Height:    d.Height,
		Stage:     stage,
	}
}

func assetKey(src string) string {
	sum := sha1.Sum([]byte(src))
	return "asset:" + hex.EncodeToString(sum[:])
}
