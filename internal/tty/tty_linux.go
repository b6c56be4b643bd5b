//go:build linux

package tty

import "golang.org/x/sys/unix"

// isTerminal succeeds in fetching termios only for terminal devices.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}
