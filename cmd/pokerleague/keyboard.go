package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/abrezinsky/pokerleague/internal/app"
	"github.com/abrezinsky/pokerleague/internal/browser"
	"github.com/abrezinsky/pokerleague/internal/logger"
	"github.com/abrezinsky/pokerleague/internal/services"
)

// console is what the keyboard shortcuts act on
type console interface {
	TogglePause(ctx context.Context) (*services.ClockView, error)
	StepLevel(ctx context.Context, direction int) (*services.ClockView, bool, error)
	ActiveClockURL(ctx context.Context) (string, error)
}

var _ console = (*app.App)(nil)

// handleKey performs the action bound to key. It returns true on quit.
func handleKey(ctx context.Context, key byte, c console, appLog *logger.SlogLogger) bool {
	switch strings.ToLower(string(key)) {
	case "p":
		view, err := c.TogglePause(ctx)
		if err != nil {
			fmt.Printf("%s%v%s\n", red, err, reset)
			return false
		}
		if view.Paused {
			fmt.Printf("%sClock paused at %s%s\n", yellow, formatRemaining(view.DisplayRemaining), reset)
		} else {
			fmt.Printf("%sClock running: %s%s\n", green, view.Label, reset)
		}
	case "n", "b":
		direction := 1
		if key == 'b' || key == 'B' {
			direction = -1
		}
		view, changed, err := c.StepLevel(ctx, direction)
		if err != nil {
			fmt.Printf("%s%v%s\n", red, err, reset)
			return false
		}
		if !changed {
			edge := "last"
			if direction < 0 {
				edge = "first"
			}
			fmt.Printf("%sAlready at the %s level%s\n", yellow, edge, reset)
			return false
		}
		fmt.Printf("%sLevel %d: %s%s\n", green, view.Level+1, view.Label, reset)
	case "c":
		url, err := c.ActiveClockURL(ctx)
		if err != nil {
			fmt.Printf("%s%v%s\n", red, err, reset)
			return false
		}
		fmt.Printf("%sOpening %s...%s\n", cyan, url, reset)
		if err := browser.Open(url); err != nil {
			fmt.Printf("%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		if appLog.IsHTTPLoggingEnabled() {
			appLog.DisableHTTPLogging()
			fmt.Printf("%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			appLog.EnableHTTPLogging()
			fmt.Printf("%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		cycleLogLevel(appLog)
	case "q", "\x03":
		fmt.Printf("%sShutting down server...%s\n", yellow, reset)
		return true
	case "?":
		printKeyboardHelp()
	}
	return false
}

func formatRemaining(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
