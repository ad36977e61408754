//go:build windows

package main

import (
	"context"
	"os"

	"github.com/abrezinsky/pokerleague/internal/logger"
)

// listenForKeyboard reads keys on Windows. The console stays line buffered,
// so each key is acted on after Enter.
func listenForKeyboard(ctx context.Context, c console, appLog *logger.SlogLogger, quit func()) {
	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		if buf[0] == '\r' || buf[0] == '\n' {
			continue
		}
		if handleKey(ctx, buf[0], c, appLog) {
			quit()
			return
		}
	}
}
