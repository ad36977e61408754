package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abrezinsky/pokerleague/internal/auth"
	apperrors "github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/logger"
	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/services"
)

func createTestApp(t *testing.T) *App {
	t.Helper()
	adminAuth, err := auth.New("test-password")
	if err != nil {
		t.Fatalf("auth.New failed: %v", err)
	}
	app, err := New(logger.New(), ":memory:", adminAuth)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

// seatActiveRound creates an active round with three players
func seatActiveRound(t *testing.T, app *App) *models.Round {
	t.Helper()
	round, err := app.rounds.CreateRound(context.Background(), services.CreateRoundRequest{
		RoundNumber: 1,
		Type:        models.RoundRegular,
		PlayerIDs:   []int64{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("CreateRound failed: %v", err)
	}
	return round
}

func TestNew_InitializesApp(t *testing.T) {
	app := createTestApp(t)

	if app.handlers == nil {
		t.Error("expected handlers to be initialized")
	}
	if app.repo == nil {
		t.Error("expected repo to be initialized")
	}
	if app.hub == nil || app.rounds == nil || app.settings == nil {
		t.Error("expected hub and services to be initialized")
	}
	if app.handlers.Log == nil {
		t.Error("expected the slog logger to control HTTP logging")
	}
}

func TestNew_FailsWithBadDBPath(t *testing.T) {
	adminAuth, _ := auth.New("test-password")

	_, err := New(logger.New(), "/nonexistent/path/db.sqlite", adminAuth)

	if err == nil {
		t.Error("expected error for invalid db path")
	}
}

func TestApp_Router_ServesRequests(t *testing.T) {
	app := createTestApp(t)
	server := httptest.NewServer(app.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/config")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for /api/config, got %d", resp.StatusCode)
	}
}

func TestConfigure(t *testing.T) {
	app := createTestApp(t)
	ctx := context.Background()

	if err := app.Configure(ctx, "http://10.0.0.2:8081/", 4); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	baseURL, _ := app.settings.GetBaseURL(ctx)
	if baseURL != "http://10.0.0.2:8081" {
		t.Errorf("expected trimmed base URL, got %q", baseURL)
	}
	interval, _ := app.settings.GetPollInterval(ctx)
	if interval != 4 {
		t.Errorf("expected poll interval 4, got %d", interval)
	}

	// zero values leave settings alone
	if err := app.Configure(ctx, "", 0); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if baseURL, _ := app.settings.GetBaseURL(ctx); baseURL != "http://10.0.0.2:8081" {
		t.Errorf("expected base URL to be kept, got %q", baseURL)
	}

	if err := app.Configure(ctx, "", 90); err == nil {
		t.Error("expected error for out of range poll interval")
	}
}

func TestSetDefaultBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"sets when empty", "", "http://192.168.1.100:8081"},
		{"replaces localhost", "http://localhost:8081", "http://192.168.1.100:8081"},
		{"keeps configured URL", "http://192.168.1.50:8081", "http://192.168.1.50:8081"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := createTestApp(t)
			ctx := context.Background()
			if tt.existing != "" {
				app.settings.SetBaseURL(ctx, tt.existing)
			}

			app.setDefaultBaseURL(ctx, "http://192.168.1.100:8081")

			got, err := app.settings.GetBaseURL(ctx)
			if err != nil {
				t.Fatalf("GetBaseURL failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSetDefaultBaseURL_HandlesRepoError(t *testing.T) {
	app := createTestApp(t)

	// Close the underlying database to force an error
	app.repo.DB().Close()

	// Should not panic, just logs a warning
	app.setDefaultBaseURL(context.Background(), "http://192.168.1.100:8081")
}

func TestConsoleControls(t *testing.T) {
	app := createTestApp(t)
	ctx := context.Background()

	if _, err := app.TogglePause(ctx); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found without an active round, got %v", err)
	}

	round := seatActiveRound(t, app)
	if _, err := app.rounds.StartRound(ctx, round.ID); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	view, err := app.TogglePause(ctx)
	if err != nil {
		t.Fatalf("TogglePause failed: %v", err)
	}
	if !view.Paused {
		t.Error("expected clock to be paused")
	}

	view, changed, err := app.StepLevel(ctx, 1)
	if err != nil {
		t.Fatalf("StepLevel failed: %v", err)
	}
	if !changed || view.Level != 1 {
		t.Errorf("expected level 1, got %d (changed=%v)", view.Level, changed)
	}

	view, changed, err = app.StepLevel(ctx, -1)
	if err != nil || !changed || view.Level != 0 {
		t.Errorf("expected back at level 0, got %+v, %v", view, err)
	}

	app.settings.SetBaseURL(ctx, "http://192.168.1.9:8081")
	url, err := app.ActiveClockURL(ctx)
	if err != nil {
		t.Fatalf("ActiveClockURL failed: %v", err)
	}
	if url != fmt.Sprintf("http://192.168.1.9:8081/api/rounds/%d/clock", round.ID) {
		t.Errorf("unexpected url %s", url)
	}
}

func TestApp_Run_ServesUntilCancelled(t *testing.T) {
	app := createTestApp(t)
	seatActiveRound(t, app)

	// reserve a free port
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, addr, 50*time.Millisecond)
	}()

	var resp *http.Response
	for i := 0; i < 20; i++ {
		resp, err = http.Get("http://" + addr + "/api/rounds/active")
		if err == nil {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server did not come up: %v", err)
	}
	var body struct {
		Round struct {
			RoundNumber int `json:"round_number"`
		} `json:"round"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if body.Round.RoundNumber != 1 {
		t.Errorf("expected round 1, got %d", body.Round.RoundNumber)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_Run_ListenError(t *testing.T) {
	app := createTestApp(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer l.Close()

	if err := app.Run(context.Background(), l.Addr().String(), time.Second); err == nil {
		t.Error("expected error when the port is taken")
	}
}

// ==================== Network detection ====================

// mockInterface implements networkInterface for testing
type mockInterface struct {
	flags net.Flags
	addrs []net.Addr
	err   error
}

func (m mockInterface) Flags() net.Flags {
	return m.flags
}

func (m mockInterface) Addrs() ([]net.Addr, error) {
	return m.addrs, m.err
}

// mockNetworkProvider implements networkProvider for testing
type mockNetworkProvider struct {
	interfaces []networkInterface
	err        error
}

func (m mockNetworkProvider) Interfaces() ([]networkInterface, error) {
	return m.interfaces, m.err
}

func ipNet(s string) *net.IPNet {
	return &net.IPNet{IP: net.ParseIP(s), Mask: net.CIDRMask(24, 32)}
}

func TestGetPreferredIP(t *testing.T) {
	tests := []struct {
		name     string
		provider mockNetworkProvider
		want     string
	}{
		{"network error", mockNetworkProvider{err: net.ErrClosed}, "localhost"},
		{"addrs error", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, err: net.ErrClosed},
		}}, "localhost"},
		{"ip addr", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("192.168.1.100")}}},
		}}, "192.168.1.100"},
		{"public fallback", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("8.8.8.8")}},
		}}, "8.8.8.8"},
		{"private preferred", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("8.8.8.8"), ipNet("172.20.0.4")}},
		}}, "172.20.0.4"},
		{"loopback skipped", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("127.0.0.1"), ipNet("10.1.2.3")}},
		}}, "10.1.2.3"},
		{"down interface skipped", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: 0, addrs: []net.Addr{ipNet("192.168.1.7")}},
		}}, "localhost"},
		{"ipv6 skipped", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)}}},
		}}, "localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getPreferredIP(tt.provider); got != tt.want {
				t.Errorf("getPreferredIP() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetPreferredIP_Real(t *testing.T) {
	ip := getPreferredIP(realNetworkProvider{})

	if ip == "" {
		t.Fatal("expected non-empty IP")
	}
	if ip != "localhost" {
		parsed := net.ParseIP(ip)
		if parsed == nil || parsed.To4() == nil {
			t.Errorf("expected IPv4 address, got: %s", ip)
		}
	}
}
