//go:build darwin || freebsd || netbsd || openbsd

package tty

import "golang.org/x/sys/unix"

// isTerminal succeeds in fetching termios only for terminal devices.
//
// The BSDs name the request TIOCGETA rather than TCGETS.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TIOCGETA)
	return err == nil
}
