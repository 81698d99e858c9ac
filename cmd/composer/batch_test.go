package main

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_recs/internal/app"
	"hotel_recs/internal/domain"
	"hotel_recs/internal/shared"
)

type fakeBuilder struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	calls    int
}

func (f *fakeBuilder) Build(ctx context.Context, req domain.BuildRequest, sv domain.Saver) (app.Result, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)
	if req.Destination == "fail" {
		return app.Result{}, errors.New("boom")
	}
	name := "hotel-recommendations-" + req.Destination + ".pdf"
	if err := sv.Save(ctx, name, []byte("%PDF-")); err != nil {
		return app.Result{}, err
	}
	return app.Result{Filename: name, Pages: 1 + len(req.Hotels)}, nil
}

type nopSaver struct{}

func (nopSaver) Save(ctx context.Context, filename string, data []byte) error { return nil }

func TestRunBatch_BoundedAndOrdered(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, d := range []string{"lisbon", "porto", "fail", "faro", "braga", "evora"} {
		paths = append(paths, writeFile(t, dir, d+".json",
			`{"destination":"`+d+`","hotels":[{"link":"https://a.test"}]}`))
	}
	paths = append(paths, writeFile(t, dir, "broken.json", `{`))

	b := &fakeBuilder{}
	out := runBatch(context.Background(), b, nopSaver{}, paths, 2)

	require.Len(t, out, len(paths))
	for i, o := range out {
		assert.Equal(t, paths[i], o.Path)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&b.peak), int32(2))
	assert.Equal(t, 6, b.calls, "the broken file never reaches the builder")

	assert.NoError(t, out[0].Err)
	assert.Equal(t, "hotel-recommendations-lisbon.pdf", out[0].Filename)
	assert.Equal(t, 2, out[0].Pages)
	assert.Error(t, out[2].Err)
	assert.NoError(t, out[3].Err)
	assert.Error(t, out[6].Err)
	assert.Equal(t, filepath.Join(dir, "broken.json"), out[6].Path)
}

func TestRunBatch_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFile(t, dir, "a.json", `{"hotels":[{"link":"https://a.test"}]}`)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := runBatch(ctx, &fakeBuilder{}, nopSaver{}, paths, 1)
	require.Len(t, out, 1)
	assert.ErrorIs(t, out[0].Err, context.Canceled)
}

func TestParseFlags(t *testing.T) {
	cfg := shared.Config{OutputDir: "out", Workers: 4, Watermark: "CONFIDENTIAL", BuildTimeout: time.Minute}

	o, err := parseFlags([]string{"-o", "pdfs", "-w", "3", "--no-watermark", "--timeout", "30s", "reqs/"}, cfg, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "pdfs", o.output)
	assert.Equal(t, 3, o.workers)
	assert.Equal(t, "", o.watermark)
	assert.Equal(t, 30*time.Second, o.timeout)
	assert.Equal(t, []string{"reqs/"}, o.inputs)

	o, err = parseFlags([]string{"a.json"}, cfg, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "out", o.output)
	assert.Equal(t, "CONFIDENTIAL", o.watermark)
	assert.Equal(t, time.Minute, o.timeout)

	_, err = parseFlags(nil, cfg, io.Discard)
	assert.ErrorIs(t, err, errNoInputs)

	_, err = parseFlags([]string{"-w", "0", "a.json"}, cfg, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"--bogus", "a.json"}, cfg, io.Discard)
	assert.Error(t, err)
}
