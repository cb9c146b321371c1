// Package version holds the compiled-in file format and plugin protocol
// versions and compares MAJOR.MINOR.PATCH strings against them.
package version

import (
	"regexp"

	"golang.org/x/mod/semver"
)

const (
	// Current is the newest build.muda format and plugin protocol version
	Current = "1.3.0"
	// MinSupported is the oldest build.muda format still accepted
	MinSupported = "1.0.0"
	// PluginMinSupported is the oldest plugin protocol accepted
	PluginMinSupported = "1.0.0"
)

var triple = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

// Valid reports whether v is exactly MAJOR.MINOR.PATCH without leading zeros
func Valid(v string) bool {
	return triple.MatchString(v) && semver.IsValid("v"+v)
}

// Compare returns -1, 0 or +1 like semver.Compare. Both arguments must be Valid.
func Compare(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}

// InRange reports whether lo <= v <= hi
func InRange(v, lo, hi string) bool {
	return Valid(v) && Compare(v, lo) >= 0 && Compare(v, hi) <= 0
}
