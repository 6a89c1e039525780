package aggregators

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/kuralabs/flowbber/internal/bundle"
)

func TestFilterAggregator(t *testing.T) {
	a, err := newFilterAggregator(json.RawMessage(`{"exclude": ["*.password"]}`))
	if err != nil {
		t.Fatal(err)
	}

	b := bundle.New()
	b.Set("login", map[string]any{"user": "jane", "password": "hunter2"})
	if err := a.Accumulate(context.Background(), b); err != nil {
		t.Fatalf("accumulate: %v", err)
	}

	v, _ := b.Get("login")
	m := v.(map[string]any)
	if _, ok := m["password"]; ok {
		t.Fatal("excluded key survived")
	}
	if m["user"] != "jane" {
		t.Fatal("sibling key lost")
	}
}

func TestFilterAggregatorRejectsUnknownOptions(t *testing.T) {
	if _, err := newFilterAggregator(json.RawMessage(`{"includes": ["*"]}`)); err == nil {
		t.Fatal("typoed option accepted")
	}
}

func TestExpanderAggregator(t *testing.T) {
	a, err := newExpanderAggregator(json.RawMessage(`{"key": "stats"}`))
	if err != nil {
		t.Fatal(err)
	}

	b := bundle.New()
	b.Set("first", 1)
	b.Set("stats", map[string]any{"cpu": 0.5, "mem": 0.8})
	if err := a.Accumulate(context.Background(), b); err != nil {
		t.Fatalf("accumulate: %v", err)
	}

	want := []string{"first", "cpu", "mem"}
	if got := b.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if v, _ := b.Get("cpu"); v != 0.5 {
		t.Fatalf("cpu = %v, want 0.5", v)
	}
	if _, ok := b.Get("stats"); ok {
		t.Fatal("expanded key still present")
	}
}

func TestExpanderAggregatorErrors(t *testing.T) {
	if _, err := newExpanderAggregator(nil); err == nil {
		t.Fatal("missing key accepted")
	}

	a, err := newExpanderAggregator(json.RawMessage(`{"key": "x"}`))
	if err != nil {
		t.Fatal(err)
	}

	b := bundle.New()
	if err := a.Accumulate(context.Background(), b); err == nil {
		t.Fatal("missing bundle key accepted")
	}

	b.Set("x", "not a map")
	if err := a.Accumulate(context.Background(), b); err == nil {
		t.Fatal("non-map value accepted")
	}
}
