// internal/config/watcher_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigWatcher_ReloadsValidChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaspi.yaml")
	if err := os.WriteFile(path, []byte("max_pages: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cw, err := NewConfigWatcher(path, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer cw.Close()

	reloaded := make(chan *Config, 4)
	cw.OnChange(func(c *Config) { reloaded <- c })

	// An invalid file is ignored.
	if err := os.WriteFile(path, []byte("max_pages: -5\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := os.WriteFile(path, []byte("max_pages: 7\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.MaxPages < 0 {
				t.Fatalf("invalid configuration was delivered: %+v", c)
			}
			if c.MaxPages == 7 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestConfigWatcher_CloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaspi.yaml")
	if err := os.WriteFile(path, []byte("locale: ru\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cw, err := NewConfigWatcher(path, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Errorf("first close failed: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
