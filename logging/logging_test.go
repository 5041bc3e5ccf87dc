package logging_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kolibri-data/relation/logging"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l, err := logging.New(logging.Config{File: path, Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.Component(l, "sqlengine").Info("query executed")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Contains(b, []byte("component=sqlengine")) {
		t.Errorf("log output missing component field: %s", b)
	}
	if !bytes.Contains(b, []byte("query executed")) {
		t.Errorf("log output missing message: %s", b)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := logging.New(logging.Config{Level: "not-a-level"}); err == nil {
		t.Fatalf("New did not fail on an invalid level")
	}
}

func TestDiscardDropsOutput(t *testing.T) {
	entry := logging.Discard()
	if entry.Logger.Out != io.Discard {
		t.Errorf("Discard entry writes to %T, want io.Discard", entry.Logger.Out)
	}
}
