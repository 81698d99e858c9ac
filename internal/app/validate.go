package app

import (
	"fmt"
	"net/url"
	"strings"

	"hotel_recs/internal/domain"
)

// Validate rejects requests that cannot produce a document. It runs before
// any asset is fetched or page composed.
func Validate(req domain.BuildRequest) error {
	if len(req.Hotels) == 0 {
		return &domain.ValidationError{Field: "hotels", Reason: "at least one hotel is required"}
	}
	for i, h := range req.Hotels {
		field := fmt.Sprintf("hotels[%d].link", i)
		link := strings.TrimSpace(h.Link)
		if link == "" {
			return &domain.ValidationError{Field: field, Reason: "link is required"}
		}
		if !isAbsHTTP(link) {
			return &domain.ValidationError{Field: field, Reason: "must be an absolute http(s) URL"}
		}
	}
	return nil
}

func isAbsHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}
