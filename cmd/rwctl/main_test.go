package main

import (
	"os"
	"path/filepath"
	"testing"

	"remnawave.dev/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvPanelURL, config.EnvTimeout, config.EnvCredentialsFile, config.EnvLogLevel} {
		t.Setenv(key, "")
	}
}

// The panel URL must be acceptable from the flag alone, with no environment
// or config file value behind it.
func TestPanelURLFlagAlone(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("timeout: 5s\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvCredentialsFile, filepath.Join(dir, "credentials.json"))

	// logout on an anonymous session touches no network
	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "--panel-url", "https://panel.example.com", "logout"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestMissingPanelURLStillRejected(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("timeout: 5s\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvCredentialsFile, filepath.Join(dir, "credentials.json"))

	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "logout"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected a validation error without a panel url")
	}
}
