package domain

import (
	"context"
	"time"
)

// AssetResolver turns a remote image URL into an ImageAsset. It always
// settles: failures come back as an asset in the Failed state.
type AssetResolver interface {
	Resolve(ctx context.Context, url string) ImageAsset
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Saver receives the finished artifact. Save is synchronous.
type Saver interface {
	Save(ctx context.Context, filename string, data []byte) error
}

// BuildRepository keeps an audit trail of document builds.
type BuildRepository interface {
	RecordBuild(ctx context.Context, b BuildRecord) error
	ListBuilds(ctx context.Context, limit int) ([]BuildRecord, error)
	GetBuild(ctx context.Context, id string) (BuildRecord, error) // ErrNotFound when absent
}

type BuildStatus string

const (
	BuildOK               BuildStatus = "ok"
	BuildValidationFailed BuildStatus = "validation_failed"
	BuildFailed           BuildStatus = "build_failed"
	BuildCanceled         BuildStatus = "canceled"
)

type BuildRecord struct {
	ID           string      `json:"id"`
	Filename     string      `json:"filename,omitempty"`
	ClientName   string      `json:"clientName,omitempty"`
	Destination  string      `json:"destination,omitempty"`
	Hotels       int         `json:"hotels"`
	Pages        int         `json:"pages"`
	FailedAssets int         `json:"failedAssets"`
	Bytes        int         `json:"bytes"`
	Status       BuildStatus `json:"status"`
	Error        string      `json:"error,omitempty"`
	DurationMS   int64       `json:"durationMs"`
	CreatedAt    time.Time   `json:"createdAt"`
}
