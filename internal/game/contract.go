//go:build !debug

package game

// contractViolation is a no-op in release builds; the caller recovers locally.
func contractViolation(err error) {}
