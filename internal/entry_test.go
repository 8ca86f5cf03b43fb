package internal

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/kazukitoyoda1215-max/Supporton/internal/testutil"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// watchConfig returns a config that syncs from local sheet files with the
// file watcher enabled.
func watchConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = freePort(t)
	cfg.SQLite.Path = filepath.Join(dir, "supporton.db")
	cfg.Sheets.UseGoogleSheets = true
	cfg.Sheets.FlowSheetURL = testutil.WriteSheet(t, dir, "flow.csv", "タイトル,親カテゴリ\nA,\nB,A\n")
	cfg.Sheets.PhoneSheetURL = testutil.WriteSheet(t, dir, "phones.csv", "number,name\n0120-1,テスト電力\n")
	cfg.Sheets.Watch = true
	return cfg
}

// startRun launches Run and blocks until the health endpoint answers.
func startRun(t *testing.T, ctx context.Context, cfg *Config) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, WithConfig(cfg), WithLogOutput(io.Discard))
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/health/live", cfg.App.HTTP.Port)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-done:
			t.Fatalf("Run returned early: %v", err)
		default:
		}
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return done
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server did not become ready")
	return nil
}

func waitStopped(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

func TestRun_SignalStopsWatcherAndServer(t *testing.T) {
	done := startRun(t, context.Background(), watchConfig(t))

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatal(err)
	}
	waitStopped(t, done)
}

func TestRun_CancelStopsWatcherAndServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startRun(t, ctx, watchConfig(t))

	cancel()
	waitStopped(t, done)
}
