//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package tty

// isTerminal always reports false where terminal detection is unavailable.
func isTerminal(uintptr) bool { return false }
