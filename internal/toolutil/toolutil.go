// Package toolutil provides shared helper functions for go_careerlift MCP tools.
package toolutil

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

// Cached returns the cached value under key, or computes, stores and returns it.
// Errors are never cached.
func Cached[T any](ctx context.Context, key string, compute func() (T, error)) (T, error) {
	if out, ok := engine.CacheLoadJSON[T](ctx, key); ok {
		return out, nil
	}
	out, err := compute()
	if err != nil {
		return out, err
	}
	engine.CacheStoreJSON(ctx, key, out)
	return out, nil
}

// ListingKey builds a cache key for a job listing. It embeds the job write
// counter, so a listing cached before the last upsert is never served.
func ListingKey(parts ...string) string {
	return engine.CacheKey(append([]string{"job_list", strconv.FormatInt(engine.JobWrites(), 10)}, parts...)...)
}

// Clamp applies a default for n <= 0 and caps n at max.
func Clamp(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}

// FileInput decodes an uploaded file given either as base64 content or as
// plain text. Plain text without a filename is treated as a .txt file.
func FileInput(filename, contentBase64, text string) (string, []byte, error) {
	filename = strings.TrimSpace(filename)
	switch {
	case contentBase64 != "":
		if filename == "" {
			return "", nil, errors.New("filename is required with content_base64")
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(contentBase64))
		if err != nil {
			return "", nil, fmt.Errorf("decode content_base64: %w", err)
		}
		return filename, data, nil
	case text != "":
		if filename == "" {
			filename = "resume.txt"
		}
		return filename, []byte(text), nil
	}
	return "", nil, errors.New("content_base64 or text is required")
}
