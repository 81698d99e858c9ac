package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_recs/internal/adapters/assets"
	httpserver "hotel_recs/internal/adapters/http_server"
	"hotel_recs/internal/app"
	"hotel_recs/internal/domain"
	"hotel_recs/internal/render"
)

type memRepo struct {
	mu     sync.Mutex
	builds []domain.BuildRecord
}

func (m *memRepo) RecordBuild(ctx context.Context, b domain.BuildRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = append(m.builds, b)
	return nil
}

func (m *memRepo) ListBuilds(ctx context.Context, limit int) ([]domain.BuildRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.BuildRecord{}
	for i := len(m.builds) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.builds[i])
	}
	return out, nil
}

func (m *memRepo) GetBuild(ctx context.Context, id string) (domain.BuildRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.builds {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.BuildRecord{}, domain.ErrNotFound
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	c.m[key] = b
	return err
}

func (c *memCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	for x := 0; x < 30; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: uint8(4 * x), B: uint8(6 * y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	api    *httptest.Server
	origin *httptest.Server
	hits   *int32
	repo   *memRepo
}

func newFixture(t *testing.T, health func(context.Context) error) fixture {
	t.Helper()
	img := pngBytes(t)
	var hits int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch {
		case strings.HasSuffix(r.URL.Path, ".png"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img)
		case r.URL.Path == "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(origin.Close)

	client := assets.NewClient(2*time.Second, 100, 1).AllowPrivateNetworks()
	resolver := assets.NewResolver(client, nil, assets.Options{AttemptTimeout: time.Second, MaxEdge: 64})
	repo := &memRepo{}
	svc := app.NewDocumentService(app.NewCompositor(resolver),
		render.NewEmitter(render.PDFSurfaceFactory, render.DefaultWatermark()), repo)

	srv := httpserver.New(10 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{
		Docs:   svc,
		Images: httpserver.NewImageProxy(client, &memCache{}, time.Hour),
		Health: health,
	})
	api := httptest.NewServer(srv.Mux())
	t.Cleanup(api.Close)
	return fixture{api: api, origin: origin, hits: &hits, repo: repo}
}

func postJSON(t *testing.T, u string, v any) *http.Response {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(u, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestCreateDocument_ReturnsPDF(t *testing.T) {
	f := newFixture(t, nil)
	req := domain.BuildRequest{
		ClientName: "ACME",
		Hotels: []domain.HotelEntry{
			{Name: "Alpha", Link: "https://a.test", Images: []string{f.origin.URL + "/1.png", f.origin.URL + "/missing.jpg"}},
			{Name: "Beta", Link: "https://b.test"},
		},
	}
	resp := postJSON(t, f.api.URL+"/v1/documents", req)
	body := readAll(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="hotel-recommendations-acme-`)
	assert.Equal(t, "3", resp.Header.Get("X-Document-Pages"))
	assert.Equal(t, "1", resp.Header.Get("X-Failed-Assets"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	builds, _ := f.repo.ListBuilds(context.Background(), 10)
	require.Len(t, builds, 1)
	assert.Equal(t, domain.BuildOK, builds[0].Status)
}

func TestCreateDocument_ValidationProblem(t *testing.T) {
	f := newFixture(t, nil)
	resp := postJSON(t, f.api.URL+"/v1/documents", domain.BuildRequest{
		Hotels: []domain.HotelEntry{{Name: "Alpha", Link: "not a url"}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	var p map[string]any
	require.NoError(t, json.Unmarshal(readAll(t, resp), &p))
	assert.Equal(t, "hotels[0].link", p["field"])
	assert.EqualValues(t, 400, p["status"])
}

func TestCreateDocument_BadJSON(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := http.Post(f.api.URL+"/v1/documents", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	builds, _ := f.repo.ListBuilds(context.Background(), 10)
	assert.Empty(t, builds)
}

func TestListDocuments_ETag(t *testing.T) {
	f := newFixture(t, nil)
	postJSON(t, f.api.URL+"/v1/documents", domain.BuildRequest{Hotels: []domain.HotelEntry{{Link: "https://a.test"}}})

	resp, err := http.Get(f.api.URL + "/v1/documents?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var out struct {
		Items []domain.BuildRecord `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, 2, out.Items[0].Pages)

	req, _ := http.NewRequest(http.MethodGet, f.api.URL+"/v1/documents?limit=10", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)

	one, err := http.Get(f.api.URL + "/v1/documents/" + out.Items[0].ID)
	require.NoError(t, err)
	defer one.Body.Close()
	assert.Equal(t, http.StatusOK, one.StatusCode)

	missing, err := http.Get(f.api.URL + "/v1/documents/does-not-exist")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	resp3, err := http.Get(f.api.URL + "/v1/documents?limit=abc")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestProxyImage(t *testing.T) {
	f := newFixture(t, nil)
	get := func(src string) *http.Response {
		resp, err := http.Get(f.api.URL + "/proxy-image?url=" + url.QueryEscape(src))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := get(f.origin.URL + "/a.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, pngBytes(t), readAll(t, resp))

	// second request is served from the cache
	resp = get(f.origin.URL + "/a.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(f.hits))

	assert.Equal(t, http.StatusNotFound, get(f.origin.URL+"/gone.jpg").StatusCode)
	assert.Equal(t, http.StatusUnsupportedMediaType, get(f.origin.URL+"/page.html").StatusCode)
	assert.Equal(t, http.StatusBadRequest, get("file:///etc/passwd").StatusCode)
	assert.Equal(t, http.StatusBadRequest, get("").StatusCode)
}

func TestProxyImage_RefusesInternalAddresses(t *testing.T) {
	var hits int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes(t))
	}))
	t.Cleanup(internal.Close)

	// production client: the address guard is on
	proxy := httpserver.NewImageProxy(assets.NewClient(2*time.Second, 100, 1), &memCache{}, time.Hour)

	for _, src := range []string{
		internal.URL + "/admin",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]:9/x.png",
	} {
		rec := httptest.NewRecorder()
		proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy-image?url="+url.QueryEscape(src), nil))
		assert.Equal(t, http.StatusForbidden, rec.Code, src)
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestHealthz(t *testing.T) {
	ok := newFixture(t, nil)
	resp, err := http.Get(ok.api.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down := newFixture(t, func(context.Context) error { return errors.New("redis: connection refused") })
	resp2, err := http.Get(down.api.URL + "/healthz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}
