// Package tz pins all "what day is it" math to a single reference timezone.
//
// Sources publish dates without years and times without offsets. Every parser routes
// those through this package so the same input yields the same result no matter which
// timezone the host runs in. Values returned as "naive" carry the reference wall clock
// in time.UTC, which keeps them directly comparable with each other.
package tz
