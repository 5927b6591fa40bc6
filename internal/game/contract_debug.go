//go:build debug

package game

// contractViolation aborts debug builds so controller bugs surface immediately.
func contractViolation(err error) {
	panic(err)
}
