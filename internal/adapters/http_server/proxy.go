package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_recs/internal/adapters/assets"
	"hotel_recs/internal/adapters/observability"
	"hotel_recs/internal/domain"
)

// ImageProxy serves remote images from our own origin so the composer can
// read them without cross-origin restrictions. Bytes are cached when a cache
// is configured.
type ImageProxy struct {
	client *assets.Client
	cache  domain.Cache
	ttl    time.Duration
}

func NewImageProxy(c *assets.Client, cache domain.Cache, ttl time.Duration) *ImageProxy {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ImageProxy{client: c, cache: cache, ttl: ttl}
}

type proxied struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func (p *ImageProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("url")
	u, err := url.Parse(src)
	if src == "" || err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		writeProblem(w, http.StatusBadRequest, "Invalid url", "url must be an absolute http(s) URL")
		return
	}

	key := proxyKey(src)
	var hit proxied
	if p.cache != nil {
		if ok, _ := p.cache.Get(r.Context(), key, &hit); ok && len(hit.Data) > 0 {
			writeImage(w, hit)
			return
		}
	}

	data, ct, err := p.client.Fetch(r.Context(), "origin", src)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, assets.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, assets.ErrForbidden), errors.Is(err, assets.ErrBlockedAddress):
			status = http.StatusForbidden
		case errors.Is(err, assets.ErrTooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		log.Warn().Str("url", src).Int("status", status).Str("kind", observability.LabelErr(err)).Err(err).Msg("proxy fetch failed")
		writeProblem(w, status, http.StatusText(status), "image could not be fetched")
		return
	}

	ct = imageType(ct, data)
	if ct == "" {
		writeProblem(w, http.StatusUnsupportedMediaType, "Not an image", "origin did not return an image")
		return
	}
	out := proxied{ContentType: ct, Data: data}
	if p.cache != nil {
		_ = p.cache.Set(r.Context(), key, out, int(p.ttl.Seconds()))
	}
	writeImage(w, out)
}

// imageType trusts the origin's header when it says image/*, else sniffs.
// Returns "" for anything that is not an image.
func imageType(header string, data []byte) string {
	if mt := strings.TrimSpace(strings.SplitN(header, ";", 2)[0]); strings.HasPrefix(mt, "image/") {
		return mt
	}
	if sniff := http.DetectContentType(data); strings.HasPrefix(sniff, "image/") {
		return sniff
	}
	return ""
}

func writeImage(w http.ResponseWriter, p proxied) {
	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(p.Data); err != nil {
		log.Error().Err(err).Msg("failed to write proxied image")
	}
}

func proxyKey(src string) string {
	sum := sha1.Sum([]byte(src))
	return "proxy:" + hex.EncodeToString(sum[:])
}
