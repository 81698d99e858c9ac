package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_recs/internal/app"
	"hotel_recs/internal/domain"
)

// maxRequestBytes bounds a build request body; image URLs are the bulk.
const maxRequestBytes = 1 << 20

type Handlers struct {
	Docs   *app.DocumentService
	Images *ImageProxy
	Health func(ctx context.Context) error // optional readiness probe
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.healthz)
	s.mux.With(MaxBody(maxRequestBytes)).Post("/v1/documents", h.createDocument)
	s.mux.Get("/v1/documents", h.listDocuments)
	s.mux.Get("/v1/documents/{id}", h.getDocument)
	if h.Images != nil {
		s.mux.Get("/proxy-image", h.Images.ServeHTTP)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemJSON(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemJSON(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) createDocument(w http.ResponseWriter, r *http.Request) {
	var req domain.BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Request too large",
				fmt.Sprintf("body exceeds %d bytes", mbe.Limit))
			return
		}
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	res, err := h.Docs.Generate(r.Context(), req)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			writeProblemJSON(w, problem{Type: "about:blank", Title: "Invalid build request",
				Status: http.StatusBadRequest, Detail: ve.Reason, Field: ve.Field})
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			writeProblem(w, http.StatusGatewayTimeout, "Build timed out", "document build did not finish in time")
		default:
			log.Error().Err(err).Msg("document build failed")
			writeProblem(w, http.StatusInternalServerError, "Build failed", "document could not be generated")
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Document-Id", res.ID)
	w.Header().Set("X-Document-Pages", strconv.Itoa(res.Pages))
	w.Header().Set("X-Failed-Assets", strconv.Itoa(res.FailedAssets))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		log.Error().Err(err).Msg("failed to write document body")
	}
}

func (h *Handlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	out, err := h.Docs.ListBuilds(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list builds failed")
		writeProblem(w, http.StatusInternalServerError, "Unavailable", "build log could not be read")
		return
	}

	etag, body := calcETagAndBody(map[string]any{"items": out})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listDocuments body")
	}
}

func (h *Handlers) getDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.Docs.GetBuild(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "build not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("get build failed")
		writeProblem(w, http.StatusInternalServerError, "Unavailable", "build log could not be read")
		return
	}

	etag, body := calcETagAndBody(b)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getDocument body")
	}
}
