package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_recs/internal/adapters/observability"
	"hotel_recs/internal/domain"
	"hotel_recs/internal/render"
)

// Result summarises a finished build.
type Result struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Pages        int    `json:"pages"`
	Bytes        int    `json:"bytes"`
	FailedAssets int    `json:"failedAssets"`
	Data         []byte `json:"-"`
}

// DocumentService runs one build end to end: compose, emit, optionally save,
// and record the outcome. The repository is optional.
type DocumentService struct {
	comp    *Compositor
	emitter *render.Emitter
	repo    domain.BuildRepository
	queries *BuildQueries
	timeout time.Duration
	now     func() time.Time
}

func NewDocumentService(c *Compositor, e *render.Emitter, r domain.BuildRepository) *DocumentService {
	return &DocumentService{comp: c, emitter: e, repo: r, queries: NewBuildQueries(r, nil, 0), now: time.Now}
}

// WithCache caches the recent-builds listing for ttl.
func (s *DocumentService) WithCache(c domain.Cache, ttl time.Duration) *DocumentService {
	s.queries = NewBuildQueries(s.repo, c, ttl)
	return s
}

// WithTimeout bounds every build; zero means only the caller's context
// applies.
func (s *DocumentService) WithTimeout(d time.Duration) *DocumentService {
	s.timeout = d
	return s
}

// WithClock replaces the wall clock, for tests.
func (s *DocumentService) WithClock(now func() time.Time) *DocumentService {
	s.now = now
	return s
}

// Generate builds the document and returns its bytes without saving them.
func (s *DocumentService) Generate(ctx context.Context, req domain.BuildRequest) (Result, error) {
	return s.run(ctx, req, nil)
}

// Build builds the document and hands it to sv. A save failure fails the
// build; nothing is retried.
func (s *DocumentService) Build(ctx context.Context, req domain.BuildRequest, sv domain.Saver) (Result, error) {
	if sv == nil {
		return Result{}, fmt.Errorf("%w: no saver configured", domain.ErrSaveFailed)
	}
	return s.run(ctx, req, sv)
}

func (s *DocumentService) run(ctx context.Context, req domain.BuildRequest, sv domain.Saver) (res Result, err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := s.now()
	rec := domain.BuildRecord{
		ID:          uuid.NewString(), // replaced by the document ID once composed
		ClientName:  req.ClientName,
		Destination: req.Destination,
		Hotels:      len(req.Hotels),
		CreatedAt:   started.UTC(),
	}
	defer func() {
		rec.DurationMS = s.now().Sub(started).Milliseconds()
		rec.Status = statusOf(err)
		if err != nil {
			rec.Error = err.Error()
		}
		s.finish(ctx, rec)
	}()

	doc, err := s.comp.Compose(ctx, req, started)
	if err != nil {
		return Result{}, err
	}
	rec.ID = doc.ID
	rec.FailedAssets = doc.FailedAssets()

	art, err := s.emitter.Emit(doc)
	if err != nil {
		return Result{}, err
	}
	rec.Filename, rec.Pages, rec.Bytes = art.Filename, art.Pages, len(art.Data)

	if sv != nil {
		if err := s.emitter.Save(ctx, sv, art); err != nil {
			return Result{}, err
		}
	}

	return Result{
		ID:           doc.ID,
		Filename:     art.Filename,
		Pages:        art.Pages,
		Bytes:        len(art.Data),
		FailedAssets: rec.FailedAssets,
		Data:         art.Data,
	}, nil
}

func (s *DocumentService) finish(ctx context.Context, rec domain.BuildRecord) {
	observability.ObserveBuild(string(rec.Status), rec.Pages, time.Duration(rec.DurationMS)*time.Millisecond)

	ev := log.Info()
	if rec.Status != domain.BuildOK {
		ev = log.Warn().Str("error", rec.Error)
	}
	ev.Str("id", rec.ID).
		Str("status", string(rec.Status)).
		Int("hotels", rec.Hotels).
		Int("pages", rec.Pages).
		Int("failed_assets", rec.FailedAssets).
		Int64("ms", rec.DurationMS).
		Msg("document build")

	if s.repo == nil {
		return
	}
	// the audit row must not depend on the caller's deadline
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.RecordBuild(wctx, rec); err != nil {
		log.Error().Err(err).Str("id", rec.ID).Msg("record build failed")
		return
	}
	s.queries.Invalidate(wctx)
}

// ListBuilds returns the most recent build records, newest first.
func (s *DocumentService) ListBuilds(ctx context.Context, limit int) ([]domain.BuildRecord, error) {
	return s.queries.ListBuilds(ctx, limit)
}

// GetBuild returns one build record, or domain.ErrNotFound.
func (s *DocumentService) GetBuild(ctx context.Context, id string) (domain.BuildRecord, error) {
	if s.repo == nil {
		return domain.BuildRecord{}, domain.ErrNotFound
	}
	return s.repo.GetBuild(ctx, id)
}

func statusOf(err error) domain.BuildStatus {
	switch {
	case err == nil:
		return domain.BuildOK
	case errors.Is(err, domain.ErrValidation):
		return domain.BuildValidationFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.BuildCanceled
	default:
		return domain.BuildFailed
	}
}
