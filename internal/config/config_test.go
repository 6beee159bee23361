// File: internal/config/config_test.go
// Brief: Configuration file loading tests.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Podman != "podman" {
		t.Fatalf("podman = %q", cfg.Podman)
	}
	if len(cfg.Env) != 0 {
		t.Fatalf("env = %v", cfg.Env)
	}
	args, err := cfg.ExtraPodmanArgs()
	if err != nil || args != nil {
		t.Fatalf("extra args = %v, %v", args, err)
	}
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	xdg := t.TempDir()
	dir := filepath.Join(xdg, "dbox")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := `env:
  PATH: /opt/tools/bin
  CC: gcc-14
podman: /usr/local/bin/podman
podman_args: --security-opt "label=disable" -v /srv:/srv
host_prefix: registry.example.com/build
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Podman != "/usr/local/bin/podman" {
		t.Fatalf("podman = %q", cfg.Podman)
	}
	if cfg.HostPrefix != "registry.example.com/build" {
		t.Fatalf("host_prefix = %q", cfg.HostPrefix)
	}
	if cfg.Env["PATH"] != "/opt/tools/bin" || cfg.Env["CC"] != "gcc-14" {
		t.Fatalf("env = %v", cfg.Env)
	}
	args, err := cfg.ExtraPodmanArgs()
	if err != nil {
		t.Fatalf("extra args: %v", err)
	}
	want := []string{"--security-opt", "label=disable", "-v", "/srv:/srv"}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestLoad_ExplicitFileWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.yaml")
	if err := os.WriteFile(path, []byte("podman: nerdctl\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Podman != "nerdctl" {
		t.Fatalf("podman = %q", cfg.Podman)
	}
}

func TestDir_HonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := Dir(); got != "/tmp/xdg/dbox" {
		t.Fatalf("dir = %q", got)
	}
}

func TestExtraPodmanArgs_BadQuoting(t *testing.T) {
	cfg := &Config{PodmanArgs: `--label "unterminated`}
	if _, err := cfg.ExtraPodmanArgs(); err == nil {
		t.Fatal("expected a parse error")
	}
}
