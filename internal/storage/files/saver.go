// Package files writes finished documents to a local directory.
package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Saver implements domain.Saver on the local filesystem. Files are written
// to a temporary name and renamed, so a reader never sees a partial PDF.
type Saver struct {
	dir string
}

func NewSaver(dir string) (*Saver, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("files: output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("files: ensure output directory: %w", err)
	}
	return &Saver{dir: dir}, nil
}

func (s *Saver) Dir() string { return s.dir }

func (s *Saver) Save(ctx context.Context, filename string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := sanitizeName(filename)
	if err != nil {
		return err
	}
	full := filepath.Join(s.dir, name)
	if _, err := os.Stat(full); err == nil {
		log.Warn().Str("file", full).Msg("overwriting existing document")
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("files: create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("files: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("files: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("files: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("files: rename: %w", err)
	}
	return nil
}

// sanitizeName keeps only the final path element, so a name can never
// escape the output directory.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("files: invalid filename %q", name)
	}
	return base, nil
}
