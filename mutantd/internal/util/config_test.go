package util

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Bind     string
	Services map[string]struct {
		Redis []string `json:"redis"`
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fp, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return fp
}

func TestLoadYaml(t *testing.T) {
	t.Setenv("MUTANT_TEST_BIND", ":9999")
	fp := writeFile(t, "config.yaml", `
bind: "{{ ":8080"|env:"MUTANT_TEST_BIND" }}"
services:
  mutant:
    redis:
      - "{{ "redis://localhost:6379/0"|env:"MUTANT_TEST_UNSET_VARIABLE" }}"
`)
	var cfg testConfig
	if err := LoadFromFile(fp, &cfg); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if cfg.Bind != ":9999" {
		t.Fatalf("env filter not applied: %q", cfg.Bind)
	}
	if r := cfg.Services["mutant"].Redis; len(r) != 1 || r[0] != "redis://localhost:6379/0" {
		t.Fatalf("default not kept: %v", r)
	}
}

func TestLoadJson(t *testing.T) {
	fp := writeFile(t, "config.json", `{"Bind": ":7070"}`)
	var cfg testConfig
	if err := LoadFromFile(fp, &cfg); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if cfg.Bind != ":7070" {
		t.Fatalf("unexpected bind %q", cfg.Bind)
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	fp := writeFile(t, "config.toml", `bind = ":1"`)
	var cfg testConfig
	if err := LoadFromFile(fp, &cfg); err == nil {
		t.Fatal("expected error for unknown extension")
	}
}

func TestBytesString(t *testing.T) {
	if s := BytesToString([]byte("ACGT")); s != "ACGT" {
		t.Fatalf("got %q", s)
	}
	if b := StringToBytes("ACGT"); string(b) != "ACGT" {
		t.Fatalf("got %q", b)
	}
	if BytesToString(nil) != "" || StringToBytes("") != nil {
		t.Fatal("empty conversions")
	}
}
