package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadResource reads a configuration resource from disk. An empty path
// selects the provided fallback contents, typically an embedded default.
func ReadResource(path string, fallback []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return append([]byte(nil), fallback...), nil
	}

	file, err := os.Open(filepath.Clean(trimmed))
	if err != nil {
		return nil, fmt.Errorf("open resource: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read resource: %w", err)
	}
	return data, nil
}

// ResourcePaths returns the absolute, de-duplicated form of the non-empty paths.
func ResourcePaths(paths ...string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, raw := range paths {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		abs, err := filepath.Abs(filepath.Clean(trimmed))
		if err != nil {
			abs = filepath.Clean(trimmed)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
