package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/pokerleague/internal/auth"
	"github.com/abrezinsky/pokerleague/internal/handlers"
	"github.com/abrezinsky/pokerleague/internal/logger"
	"github.com/abrezinsky/pokerleague/internal/repository"
	"github.com/abrezinsky/pokerleague/internal/services"
	"github.com/abrezinsky/pokerleague/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
	hub      *websocket.Hub
	rounds   *services.RoundService
	settings *services.SettingsService
}

// New creates and initializes a new application instance
func New(log logger.Logger, dbPath string, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(dbPath)
	if err != nil {
		return nil, err
	}

	// Initialize services
	settingsService := services.NewSettingsService(log, repo)
	roundService := services.NewRoundService(log, repo, settingsService)
	rankingService := services.NewRankingService(log, repo, settingsService)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, roundService)
	hub.Start()
	roundService.SetBroadcaster(hub)

	httpLog, _ := log.(handlers.HTTPLogger)
	h := handlers.New(roundService, settingsService, rankingService, adminAuth, hub, httpLog)

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
		hub:      hub,
		rounds:   roundService,
		settings: settingsService,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close releases the database
func (a *App) Close() error {
	return a.repo.Close()
}

// Configure applies process-level overrides to the stored settings.
// Zero values leave the stored setting alone.
func (a *App) Configure(ctx context.Context, baseURL string, pollInterval int) error {
	if baseURL != "" {
		if err := a.settings.SetBaseURL(ctx, strings.TrimSuffix(baseURL, "/")); err != nil {
			return fmt.Errorf("failed to set base URL: %w", err)
		}
	}
	if pollInterval > 0 {
		if err := a.settings.SetPollInterval(ctx, pollInterval); err != nil {
			return fmt.Errorf("failed to set poll interval: %w", err)
		}
	}
	return nil
}

// Run serves HTTP on addr and drives the level clock until ctx is cancelled
func (a *App) Run(ctx context.Context, addr string, tickInterval time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	// Set default base URL if not configured, using detected LAN IP
	ip := getPreferredIP(realNetworkProvider{})
	port := listener.Addr().(*net.TCPAddr).Port
	baseURL := fmt.Sprintf("http://%s:%d", ip, port)
	a.setDefaultBaseURL(ctx, baseURL)

	a.log.Info("Server starting", "url", baseURL)
	a.log.Info("Active round", "url", baseURL+"/api/rounds/active")

	srv := &http.Server{Handler: a.Router(), ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		a.hub.StartLevelClock(ctx, tickInterval)
		return nil
	})
	return g.Wait()
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes)
func (a *App) setDefaultBaseURL(ctx context.Context, baseURL string) {
	existing, err := a.settings.GetBaseURL(ctx)
	if err != nil {
		a.log.Warn("Failed to read base_url", "error", err)
		return
	}

	needsUpdate := existing == "" || strings.Contains(existing, "localhost")
	if needsUpdate {
		if err := a.settings.SetBaseURL(ctx, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IP address for LAN access, so spectators'
// phones at the table can reach the clock. Falls back to localhost.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			// IPv4 only
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
