package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"hotel_recs/internal/domain"
)

// maxRequestSize bounds one request file.
const maxRequestSize = 1 << 20

var (
	ErrUnsupportedFile = errors.New("request file must be .json, .yaml or .yml")
	ErrRequestTooLarge = errors.New("request file too large")
)

func isRequestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// discoverRequests returns path itself when it is a file, else every request
// file below it in lexical order.
func discoverRequests(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !isRequestFile(path) {
			return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
		}
		return []string{path}, nil
	}

	var out []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p, err)
		}
		if d.IsDir() || !isRequestFile(p) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	sort.Strings(out)
	return out, err
}

// loadRequest decodes one request file. Unknown fields are rejected so typos
// in hand-written files surface instead of silently dropping data.
func loadRequest(path string) (domain.BuildRequest, error) {
	var req domain.BuildRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if len(data) > maxRequestSize {
		return req, fmt.Errorf("%s: %w: %d bytes", path, ErrRequestTooLarge, len(data))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&req)
	case ".yaml", ".yml":
		err = yaml.UnmarshalWithOptions(data, &req, yaml.Strict())
	default:
		return req, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
	}
	if err != nil {
		return req, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}
