package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.hcl")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFileAppliesHCLValues(t *testing.T) {
	i := IntParam(new(int), "test.load.int", 1, Default)
	s := StringParam(new(string), "test.load.string", "unset", Default)

	path := writeTempConfig(t, `
test.load.int = 42
test.load.string = "from file"
`)
	if err := cfg.loadFile(path); err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if *i != 42 {
		t.Errorf("*i = %d, want 42", *i)
	}
	if *s != "from file" {
		t.Errorf("*s = %q, want %q", *s, "from file")
	}
}

func TestLoadFileRejectsUnknownParam(t *testing.T) {
	path := writeTempConfig(t, `test.load.does-not-exist = 1`)
	if err := cfg.loadFile(path); err == nil {
		t.Fatalf("loadFile did not fail on an unregistered param")
	}
}

func TestLoadFileRejectsNoConfigFileParam(t *testing.T) {
	StringParam(new(string), "test.load.locked", "compiled-in", NoConfigFile)
	path := writeTempConfig(t, `test.load.locked = "from file"`)
	if err := cfg.loadFile(path); err == nil {
		t.Fatalf("loadFile did not reject a NoConfigFile param")
	}
}

func TestLoadAppliesFileThenFlagOverride(t *testing.T) {
	i := IntParam(new(int), "test.load.priority", 1, Default)
	path := writeTempConfig(t, `test.load.priority = 2`)

	cfg.configFile = path
	defer func() { cfg.configFile = "" }()

	if err := cfg.Set("test.load.priority=3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	defer func() { cfg.args = nil }()

	if err := cfg.load(""); err != nil {
		t.Fatalf("load: %v", err)
	}
	if *i != 3 {
		t.Errorf("*i = %d, want 3 (flag override beats config file)", *i)
	}
}
