package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_recs/internal/app"
	"hotel_recs/internal/domain"
)

type builder interface {
	Build(ctx context.Context, req domain.BuildRequest, sv domain.Saver) (app.Result, error)
}

// outcome is the result of one request file.
type outcome struct {
	Path     string
	Filename string
	Pages    int
	Failed   int // unavailable images
	Err      error
	Took     time.Duration
}

// runBatch builds every file with at most workers builds in flight. Each
// build is independent; one failure never stops the others. Outcomes keep
// the order of paths.
func runBatch(ctx context.Context, b builder, sv domain.Saver, paths []string, workers int) []outcome {
	if workers <= 0 {
		workers = 1
	}
	out := make([]outcome, len(paths))
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for i, p := range paths {
		// acquire before launching the goroutine; release inside it
		err := ctx.Err()
		if err == nil {
			err = sem.Acquire(ctx, 1)
		}
		if err != nil {
			for j := i; j < len(paths); j++ {
				out[j] = outcome{Path: paths[j], Err: err}
			}
			break
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			out[i] = buildOne(ctx, b, sv, path)
		}(i, p)
	}

	wg.Wait()
	return out
}

func buildOne(ctx context.Context, b builder, sv domain.Saver, path string) outcome {
	start := time.Now()
	o := outcome{Path: path}

	req, err := loadRequest(path)
	if err != nil {
		o.Err, o.Took = err, time.Since(start)
		log.Warn().Str("file", path).Err(err).Msg("request file rejected")
		return o
	}

	res, err := b.Build(ctx, req, sv)
	o.Took = time.Since(start)
	if err != nil {
		o.Err = err
		log.Warn().Str("file", path).Err(err).Msg("build failed")
		return o
	}
	o.Filename, o.Pages, o.Failed = res.Filename, res.Pages, res.FailedAssets
	log.Info().Str("file", path).Str("output", res.Filename).Int("pages", res.Pages).
		Int("failed_assets", res.FailedAssets).Dur("took", o.Took).Msg("build ok")
	return o
}
