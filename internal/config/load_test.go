package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "as2.yaml")

	yamlBody := "keystore:\n  path: /etc/as2/keystore.p12\n  password: secret\nserver:\n  listen_addr: \":9090\"\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeyStore.Path != "/etc/as2/keystore.p12" {
		t.Fatalf("keystore path = %q, want /etc/as2/keystore.p12", cfg.KeyStore.Path)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Fatalf("listen addr = %q, want :9090", cfg.Server.ListenAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
