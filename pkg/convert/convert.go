// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package convert provides small, safe type conversion helpers.
package convert

import "strconv"

/*
ParseInt64 parses a decimal string into an int64.

Returns:
  - int64: The parsed value, or 0 when parsing fails.
  - bool: Whether the input was a valid integer.
*/
func ParseInt64(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

/*
ParseBool parses common boolean representations ("1", "true", "0", "false").

Returns:
  - bool: The parsed value, or the fallback when parsing fails.
*/
func ParseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}

// FormatInt64 renders an int64 as its decimal string form.
func FormatInt64(n int64) string {
	return strconv.FormatInt(n, 10)
}
