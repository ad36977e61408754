package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abrezinsky/pokerleague/internal/app"
	"github.com/abrezinsky/pokerleague/internal/auth"
	"github.com/abrezinsky/pokerleague/internal/config"
	"github.com/abrezinsky/pokerleague/internal/logger"
)

// ANSI escape codes
const (
	clearLine = "\033[2K"
	moveUp    = "\033[%dA"
	reset     = "\033[0m"
	yellow    = "\033[33m"
	red       = "\033[31m"
	green     = "\033[32m"
	cyan      = "\033[36m"
	bold      = "\033[1m"
)

// showStartupBanner displays the logo, then deals a hand across the felt
func showStartupBanner(skipDeal bool) {
	width := 62
	border := strings.Repeat("═", width)

	logo := []string{
		"   ____       _             _                               ",
		"  |  _ \\ ___ | | _____ _ __| |    ___  __ _  __ _ _   _  ___ ",
		"  | |_) / _ \\| |/ / _ \\ '__| |   / _ \\/ _` |/ _` | | | |/ _ \\",
		"  |  __/ (_) |   <  __/ |  | |__|  __/ (_| | (_| | |_| |  __/",
		"  |_|   \\___/|_|\\_\\___|_|  |_____\\___|\\__,_|\\__, |\\__,_|\\___|",
		"                                            |___/            ",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-62s%s║%s\n", cyan, yellow, line, cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n", cyan, border, reset)

	if skipDeal {
		fmt.Print("\n")
		return
	}

	// Turn the bottom border into a divider and deal the board below it
	fmt.Printf(moveUp, 1)
	fmt.Printf("%s  %s╠%s╣%s\n", clearLine, cyan, border, reset)

	cards := []struct {
		face  string
		color string
	}{
		{"[A♠]", bold},
		{"[K♥]", red},
		{"[Q♦]", red},
		{"[J♣]", bold},
		{"[10♠]", bold},
	}

	board := ""
	plain := 0
	for _, card := range cards {
		board += card.color + card.face + reset + " "
		plain += len([]rune(card.face)) + 1
		pad := (width - plain) / 2
		fmt.Printf("%s  %s║%s%s%s%s║%s\n", clearLine, cyan, strings.Repeat(" ", pad), board,
			strings.Repeat(" ", width-pad-plain), cyan, reset)
		fmt.Printf("%s  %s╚%s╝%s\n", clearLine, cyan, border, reset)
		fmt.Printf(moveUp, 2)
		time.Sleep(150 * time.Millisecond)
	}
	fmt.Printf("\n\n%s  Royal flush. Shuffle up and deal.%s\n\n", green, reset)
}

var (
	version = "dev"
)

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog *logger.SlogLogger) {
	var next string
	switch appLog.GetLevel().String() {
	case "DEBUG":
		next = "info"
	case "INFO":
		next = "warn"
	case "WARN":
		next = "error"
	case "ERROR":
		next = "debug"
	default:
		next = "info"
	}

	appLog.SetLevel(logger.ParseLevel(next))
	fmt.Printf("%sLog level: %s%s%s\n", green, yellow, next, reset)
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	fmt.Printf("\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Printf("    %sp%s      - Pause / resume the clock\n", cyan, reset)
	fmt.Printf("    %sn%s      - Next blind level\n", cyan, reset)
	fmt.Printf("    %sb%s      - Previous blind level\n", cyan, reset)
	fmt.Printf("    %sc%s      - Open the clock in a browser\n", cyan, reset)
	fmt.Printf("    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Printf("    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Printf("    %sq%s      - Quit server\n", cyan, reset)
	fmt.Printf("    %s?%s      - Show this help\n\n", cyan, reset)
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DB, "db", cfg.DB, "SQLite database path")
	flag.StringVar(&cfg.AdminPassword, "adminpw", cfg.AdminPassword, "Admin password (auto-generated if not set)")
	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.BaseURL, "baseurl", cfg.BaseURL, "Public base URL for spectator links")
	noAnimate := flag.Bool("noanimate", false, "Show logo only, skip the deal")
	noKeyboard := flag.Bool("nokeyboard", false, "Disable keyboard shortcuts")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `PokerLeague - Poker Season Tournament Clock

Usage:
  pokerleague [options]

Options:
  -port int       HTTP server port (default 8081)
  -db string      SQLite database path (default "pokerleague.db")
  -adminpw str    Admin password (auto-generated if not set)
  -loglevel str   Log level: debug, info, warn, error (default "info")
  -baseurl str    Public base URL for spectator links (detected if not set)
  -noanimate      Show logo only, skip the deal
  -nokeyboard     Disable keyboard shortcuts
  -version        Show version and exit
  -help           Show this help message

Every option can also be set in pokerleague.yaml, in .env, or as a
POKERLEAGUE_* environment variable (e.g. POKERLEAGUE_PORT=8080).
Flags win over all of them.

Keyboard Shortcuts (when enabled):
  p              Pause / resume the clock of the active round
  n / b          Next / previous blind level
  c              Open the clock in a browser
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  q              Quit server
  ?              Show keyboard help

Examples:
  pokerleague                            # Run on port 8081 with pokerleague.db
  pokerleague -port 8080                 # Run on port 8080
  pokerleague -db /data/season.db        # Use custom database path
  pokerleague -adminpw secret123         # Use specific admin password

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("pokerleague %s\n", version)
		os.Exit(0)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	showStartupBanner(*noAnimate)

	// Setup admin authentication
	password := cfg.AdminPassword
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth, err := auth.New(password)
	if err != nil {
		log.Fatal("Failed to set up admin authentication: ", err)
	}

	appLog := logger.NewWithOptions(os.Stderr, logger.ParseLevel(cfg.LogLevel), logger.ParseFormat(cfg.LogFormat))

	a, err := app.New(appLog, cfg.DB, adminAuth)
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Configure(ctx, cfg.BaseURL, cfg.PollInterval); err != nil {
		log.Fatal(err)
	}

	appLog.Info("Admin password", "password", password)

	if !*noKeyboard {
		printKeyboardHelp()
		go listenForKeyboard(ctx, a, appLog, stop)
	} else {
		fmt.Printf("\n%sKeyboard shortcuts disabled (use -nokeyboard=false to enable)%s\n\n", yellow, reset)
	}

	if err := a.Run(ctx, cfg.Addr(), cfg.TickInterval); err != nil {
		log.Fatal(err)
	}
}
