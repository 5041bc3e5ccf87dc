package engine_test

import (
	"testing"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/engine"
)

func TestCapabilitiesReportsOnlyDeclaredSupport(t *testing.T) {
	caps := engine.NewCapabilities().
		WithUnary(capability.Selection, capability.Projection).
		WithBinary(capability.Chain).
		WithFunctions("upper")

	if !caps.SupportsUnary(capability.Selection) {
		t.Error("expected Selection to be supported")
	}
	if !caps.SupportsUnary(capability.Projection) {
		t.Error("expected Projection to be supported")
	}
	if caps.SupportsUnary(capability.Sort) {
		t.Error("Sort was not declared, must not be supported")
	}
	if !caps.SupportsBinary(capability.Chain) {
		t.Error("expected Chain to be supported")
	}
	if caps.SupportsBinary(capability.Join) {
		t.Error("Join was not declared, must not be supported")
	}
	if !caps.SupportsFunction("upper") {
		t.Error("expected upper to be supported")
	}
	if caps.SupportsFunction("lower") {
		t.Error("lower was not declared, must not be supported")
	}
	if caps.SupportsContainer(capability.Sequence) {
		t.Error("no container kind was declared, must not be supported")
	}
}
