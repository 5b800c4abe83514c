//go:build !(linux || solaris || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package logger

func isTerminal(uintptr) bool {
	return false
}
