package model_test

import (
	"path/filepath"
	"testing"

	"github.com/nhle/mailerbot/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PollTimeoutSec != 30 {
		t.Errorf("poll timeout default: got %d", cfg.PollTimeoutSec)
	}
	if cfg.UsersPath == "" || cfg.HistoryPath == "" {
		t.Error("store path defaults missing")
	}
	if cfg.Token != "" {
		t.Errorf("token default: got %q", cfg.Token)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	want := &model.AppConfig{
		Token:          "123:abc",
		UsersPath:      "/var/lib/mailerbot/db.json",
		HistoryPath:    "/var/lib/mailerbot/history.db",
		PollTimeoutSec: 60,
		Verbose:        true,
	}

	if err := model.SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip: got %+v, want %+v", got, want)
	}
}
