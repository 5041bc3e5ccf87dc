package config_test

import (
	"testing"

	"github.com/kolibri-data/relation/config"
)

func TestParamDefaultsAndUpdate(t *testing.T) {
	i := config.IntParam(new(int), "test.int", 123, config.Default)
	s := config.StringParam(new(string), "test.string", "default", config.Default)
	if *i != 123 {
		t.Errorf("*i = %d, want 123", *i)
	}
	if *s != "default" {
		t.Errorf("*s = %q, want %q", *s, "default")
	}

	if err := config.Update("test.int", "456"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *i != 456 {
		t.Errorf("*i = %d, want 456 after Update", *i)
	}
}

func TestParamNoUpdateRejectsUpdate(t *testing.T) {
	b := config.BoolParam(new(bool), "test.nolock", false, config.NoUpdate)
	if err := config.Update("test.nolock", "true"); err == nil {
		t.Fatalf("Update on a NoUpdate param did not fail")
	}
	if *b != false {
		t.Errorf("*b changed despite a rejected Update")
	}
}

func TestParamRedefinitionPanics(t *testing.T) {
	config.IntParam(new(int), "test.dup", 0, config.Default)
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("redefining test.dup did not panic")
		}
	}()
	config.IntParam(new(int), "test.dup", 0, config.Default)
}

func TestUpdateUnknownParamFails(t *testing.T) {
	if err := config.Update("test.does-not-exist", "1"); err == nil {
		t.Fatalf("Update on an unregistered param did not fail")
	}
}
