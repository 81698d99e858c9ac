package domain

type AssetStatus string

const (
	AssetPending AssetStatus = "pending"
	AssetLoaded  AssetStatus = "loaded"
	AssetFailed  AssetStatus = "failed"
)

// Resolution stages, used for logs, metrics and failure attribution.
const (
	StageCache  = "cache"
	StageProxy  = "proxy"
	StageDirect = "direct"
	StageDecode = "decode"
)

// ImageAsset is a resolved-or-failed remote image. Loaded and Failed are
// terminal for the lifetime of one build.
type ImageAsset struct {
	SourceURL string      `json:"sourceUrl"`
	Status    AssetStatus `json:"status"`
	Data      []byte      `json:"-"`      // JPEG, ready to embed
	Width     int         `json:"width"`  // native pixels
	Height    int         `json:"height"` // native pixels
	Stage     string      `json:"stage,omitempty"`
	Err       string      `json:"error,omitempty"`
}

func (a ImageAsset) Loaded() bool { return a.Status == AssetLoaded && len(a.Data) > 0 }

// FailedAsset builds the terminal failure marker for url.
func FailedAsset(url, stage string, err error) ImageAsset {
	a := ImageAsset{SourceURL: url, Status: AssetFailed, Stage: stage}
	if err != nil {
		a.Err = err.Error()
	}
	return a
}
