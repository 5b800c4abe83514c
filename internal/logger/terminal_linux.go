//go:build linux || solaris

package logger

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TCGETS
