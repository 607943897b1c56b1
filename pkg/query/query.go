// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query provides helpers for parsing structured values from
// URL query parameters.
package query

import (
	"net/http"
	"strconv"
	"strings"
)

/*
IntSlice parses a comma-separated query parameter into a slice of int64.

Non-numeric entries and surrounding whitespace are skipped silently so a
malformed filter degrades to a narrower result set rather than an error.

Returns:
  - []int64: The parsed values; nil when the parameter is absent or empty.
*/
func IntSlice(r *http.Request, key string) []int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))

	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

/*
StringSlice parses a comma-separated query parameter into a slice of
trimmed, non-empty strings.

Returns:
  - []string: The parsed values; nil when the parameter is absent or empty.
*/
func StringSlice(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
