//go:build linux || darwin

package main

import (
	"context"
	"os"

	"golang.org/x/sys/unix"

	"github.com/abrezinsky/pokerleague/internal/logger"
)

// listenForKeyboard reads single keys from a raw terminal until quit or ctx ends
func listenForKeyboard(ctx context.Context, c console, appLog *logger.SlogLogger, quit func()) {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		// Not a terminal
		return
	}

	newState := *oldState
	// No line buffering or echo; keep output processing so \n still works
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &newState); err != nil {
		return
	}
	restore := func() { unix.IoctlSetTermios(fd, ioctlWriteTermios, oldState) }
	defer restore()

	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		if handleKey(ctx, buf[0], c, appLog) {
			restore()
			quit()
			return
		}
	}
}
