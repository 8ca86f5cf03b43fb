package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name" toml:"name"`
	Port int    `yaml:"port" toml:"port"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAMLWithEnv(t *testing.T) {
	t.Setenv("SUPPORTON_TEST_NAME", "console")
	var s sample
	if err := Load(write(t, "c.yaml", "name: ${SUPPORTON_TEST_NAME}\nport: 8080\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "console" || s.Port != 8080 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_TOML(t *testing.T) {
	var s sample
	if err := Load(write(t, "c.toml", "name = \"console\"\nport = 9090\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "console" || s.Port != 9090 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationRuns(t *testing.T) {
	var s sample
	err := Load(write(t, "c.yaml", "name: x\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Error("expected error for missing file")
	}
}
