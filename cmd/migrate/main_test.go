package main

import (
	"io"
	"testing"

	appconfig "github.com/wolfman30/emi-voice-agent/internal/config"
	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

func TestRunRequiresDatabaseURL(t *testing.T) {
	err := run(&appconfig.Config{}, nil, logging.NewWithWriter("error", io.Discard))
	if err == nil || err.Error() != "DATABASE_URL is required" {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestIntArg(t *testing.T) {
	if n, err := intArg([]string{"down"}, 1); err != nil || n != 1 {
		t.Fatalf("expected default 1, got %d %v", n, err)
	}
	if n, err := intArg([]string{"force", "3"}, 0); err != nil || n != 3 {
		t.Fatalf("expected 3, got %d %v", n, err)
	}
	if _, err := intArg([]string{"force"}, 0); err == nil {
		t.Fatalf("expected error for missing version")
	}
	if _, err := intArg([]string{"down", "-2"}, 1); err == nil {
		t.Fatalf("expected error for negative steps")
	}
}
