// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice provides generic slice helpers used across the codebase.
package slice

// Contains reports whether v is present in s.
func Contains[T comparable](s []T, v T) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

// Unique returns a new slice with duplicate elements removed,
// preserving the order of first occurrence.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	out := make([]T, 0, len(s))

	for _, e := range s {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}

	return out
}

// Map applies fn to every element of s and returns the results.
func Map[T, U any](s []T, fn func(T) U) []U {
	out := make([]U, len(s))
	for i, e := range s {
		out[i] = fn(e)
	}
	return out
}
