package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"moneytracker/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	const key = "MONEYTRACKER_CLI_TEST_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	LoadEnvFile(path)
	if got := os.Getenv(key); got != "from-file" {
		t.Fatalf("%s = %q, want from-file", key, got)
	}

	// Missing files are ignored.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestInitStoreMigratesAndOpens(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	db := InitStore(context.Background(), logger, path)
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if !strings.Contains(buf.String(), "Database ready") {
		t.Errorf("log missing database ready line:\n%s", buf.String())
	}
}

func TestShutdownOn(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	sigs := make(chan os.Signal, 1)

	cleaned := make(chan bool, 1)
	ctx, done := shutdownOn(logger, sigs, time.Second, func(ctx context.Context) {
		_, hasDeadline := ctx.Deadline()
		cleaned <- hasDeadline
	})

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before a signal")
	default:
	}

	sigs <- syscall.SIGTERM
	WaitForShutdown(ctx, done)

	if !<-cleaned {
		t.Error("cleanup context has no deadline")
	}
	if !strings.Contains(buf.String(), "Shutdown complete") {
		t.Errorf("log output missing completion: %s", buf.String())
	}
}

func TestShutdownOnTimeout(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	sigs := make(chan os.Signal, 1)

	ctx, done := shutdownOn(logger, sigs, 10*time.Millisecond, func(ctx context.Context) {
		<-ctx.Done()
	})
	sigs <- syscall.SIGINT
	WaitForShutdown(ctx, done)

	if !strings.Contains(buf.String(), "Shutdown timeout reached") {
		t.Errorf("log output missing timeout warning: %s", buf.String())
	}
}
