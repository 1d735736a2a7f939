package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mpdwire/mpdwire/mpdprotocol"
)

// isolateEnv points HOME at an empty directory and clears the variables
// loadConfig reads, so a developer's own config cannot leak into tests.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"MPD_HOST", "MPD_PORT",
		"MPDC_HOST", "MPDC_PORT", "MPDC_TIMEOUT", "MPDC_MATCH", "MPDC_RAW",
		"MPDC_LOG_LEVEL", "MPDC_LOG_FORMAT", "MPDC_LOG_OUTPUTS",
	} {
		t.Setenv(name, "")
	}
	return home
}

func loadWithArgs(t *testing.T, argv ...string) (*Config, error) {
	t.Helper()
	args, err := parseArguments(argv)
	if err != nil {
		t.Fatalf("parseArguments(%q): %v", argv, err)
	}
	return loadConfig(args.flags)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := loadWithArgs(t)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if want := defaultConfig(); !reflect.DeepEqual(*cfg, want) {
		t.Errorf("loadConfig() = %+v, want %+v", *cfg, want)
	}
	if cfg.MatchMode() != mpdprotocol.MatchChunk {
		t.Errorf("MatchMode() = %v, want chunk", cfg.MatchMode())
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "mpdc.yaml")
	writeFile(t, path, `host: music.local
port: 6601
timeout: 10s
match: accumulated
raw: true
log:
  level: debug
  format: json
`)

	cfg, err := loadWithArgs(t, "--config", path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host != "music.local" || cfg.Port != 6601 {
		t.Errorf("address = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.MatchMode() != mpdprotocol.MatchAccumulated || !cfg.Raw {
		t.Errorf("match/raw = %q/%v", cfg.Match, cfg.Raw)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if len(cfg.Log.Outputs) != 1 || cfg.Log.Outputs[0] != "stderr" {
		t.Errorf("Outputs = %q, want default [stderr]", cfg.Log.Outputs)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	home := isolateEnv(t)
	writeFile(t, filepath.Join(home, ".config", "mpdc", "config.yaml"), "host: from-home\n")

	cfg, err := loadWithArgs(t)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host != "from-home" {
		t.Errorf("Host = %q, want from-home", cfg.Host)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MPD_HOST", "mpd-host")
	t.Setenv("MPD_PORT", "6602")
	t.Setenv("MPDC_LOG_LEVEL", "error")

	cfg, err := loadWithArgs(t)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host != "mpd-host" || cfg.Port != 6602 {
		t.Errorf("address = %s:%d, want mpd-host:6602", cfg.Host, cfg.Port)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}

	t.Setenv("MPDC_HOST", "mpdc-host")
	cfg, err = loadWithArgs(t)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host != "mpdc-host" {
		t.Errorf("Host = %q, MPDC_HOST should win over MPD_HOST", cfg.Host)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "mpdc.yaml")
	writeFile(t, path, "host: from-file\ntimeout: 1s\n")
	t.Setenv("MPD_HOST", "from-env")

	cfg, err := loadWithArgs(t, "--config", path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host != "from-env" {
		t.Errorf("Host = %q, environment should win over the file", cfg.Host)
	}
	if cfg.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s from the file", cfg.Timeout)
	}

	cfg, err = loadWithArgs(t, "--config", path, "--host", "from-flag")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host != "from-flag" {
		t.Errorf("Host = %q, flag should win over everything", cfg.Host)
	}
}

func TestLoadConfigLogFile(t *testing.T) {
	isolateEnv(t)

	cfg, err := loadWithArgs(t, "--log-file", "/tmp/mpdc.log", "--log-level", "debug")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Log.Outputs) != 1 || cfg.Log.Outputs[0] != "/tmp/mpdc.log" {
		t.Errorf("Outputs = %q", cfg.Log.Outputs)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	badFormat := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, badFormat, "log:\n  format: xml\n")

	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"match", []string{"--match", "sometimes"}, "match"},
		{"port zero", []string{"--port", "0"}, "port"},
		{"negative timeout", []string{"--timeout=-1s"}, "timeout"},
		{"empty host", []string{"--host", " "}, "host"},
		{"log format", []string{"--config", badFormat}, "log format"},
		{"missing file", []string{"--config", "/nonexistent/mpdc.yaml"}, "config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			_, err := loadWithArgs(t, tt.argv...)
			if err == nil {
				t.Fatalf("loadConfig(%q) should fail", tt.argv)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigYAML(t *testing.T) {
	cfg := defaultConfig()
	cfg.Timeout = 5 * time.Second

	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	if !strings.Contains(out, "timeout: 5s") {
		t.Errorf("timeout should print as a duration:\n%s", out)
	}

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	for _, key := range []string{"host", "port", "timeout", "match", "raw", "log"} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if parsed["port"] != 6600 {
		t.Errorf("port = %v, want 6600", parsed["port"])
	}
}
