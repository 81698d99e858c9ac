package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotel_recs/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env here
	for _, k := range []string{"APP_ENV", "BUILD_TIMEOUT_SECONDS", "HTTP_TIMEOUT_SECONDS", "BUILD_WORKERS", "PROXY_BASE_URL", "WATERMARK_TEXT", "ASSET_ALLOW_PRIVATE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	c := shared.Load()
	if c.AppEnv != "prod" || c.HTTPAddr != ":8080" || c.Watermark != "CONFIDENTIAL" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.BuildTimeout != 120*time.Second || c.RequestTimeout != 130*time.Second {
		t.Fatalf("timeouts: build=%s request=%s", c.BuildTimeout, c.RequestTimeout)
	}
	if c.Workers != 4 || c.AssetCacheTTL != 24*time.Hour || c.AssetPrivate {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_EnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("WATERMARK_TEXT=DRAFT\nBUILD_WORKERS=2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("BUILD_WORKERS", "7") // the process env wins over .env
	t.Setenv("PROXY_BASE_URL", "https://ops.example.com/")
	t.Setenv("BUILD_TIMEOUT_SECONDS", "notanumber")
	t.Setenv("WATERMARK_TEXT", "")
	os.Unsetenv("WATERMARK_TEXT")

	c := shared.Load()
	if c.Watermark != "DRAFT" {
		t.Fatalf("watermark from .env = %q", c.Watermark)
	}
	if c.Workers != 7 {
		t.Fatalf("workers = %d, want 7", c.Workers)
	}
	if c.ProxyBase != "https://ops.example.com" {
		t.Fatalf("proxy base = %q", c.ProxyBase)
	}
	if c.BuildTimeout != 120*time.Second {
		t.Fatalf("bad integer should fall back to default, got %s", c.BuildTimeout)
	}
}

func TestLoad_EmptyWatermarkDisablesText(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WATERMARK_TEXT", "")

	c := shared.Load()
	if c.Watermark != "" {
		t.Fatalf("watermark = %q, want empty", c.Watermark)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
