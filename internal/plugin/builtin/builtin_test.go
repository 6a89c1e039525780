package builtin

import (
	"reflect"
	"testing"

	"github.com/kuralabs/flowbber/internal/plugin"
)

func TestRegisterInstallsEveryBuiltin(t *testing.T) {
	reg := plugin.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	wantSources := []string{"command", "env", "json", "speed", "timestamp", "user"}
	if got := reg.SourceTypes(); !reflect.DeepEqual(got, wantSources) {
		t.Fatalf("sources = %v, want %v", got, wantSources)
	}
	wantAggregators := []string{"expander", "filter"}
	if got := reg.AggregatorTypes(); !reflect.DeepEqual(got, wantAggregators) {
		t.Fatalf("aggregators = %v, want %v", got, wantAggregators)
	}
	wantSinks := []string{"archive", "command", "print", "template"}
	if got := reg.SinkTypes(); !reflect.DeepEqual(got, wantSinks) {
		t.Fatalf("sinks = %v, want %v", got, wantSinks)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := plugin.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatal(err)
	}
	if err := Register(reg); err == nil {
		t.Fatal("double registration accepted")
	}
}
