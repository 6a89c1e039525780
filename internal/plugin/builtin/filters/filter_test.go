package filters

import (
	"reflect"
	"testing"

	"github.com/kuralabs/flowbber/internal/bundle"
)

func TestMatchAny(t *testing.T) {
	cases := []struct {
		patterns []string
		name     string
		want     bool
	}{
		{[]string{"*"}, "anything", true},
		{[]string{"s1.*"}, "s1.value", true},
		{[]string{"s1.*"}, "s2.value", false},
		{[]string{"*secret*"}, "my_secret_key", true},
		{[]string{}, "anything", false},
		{[]string{"["}, "anything", false}, // malformed pattern never matches
	}
	for _, tc := range cases {
		if got := MatchAny(tc.patterns, tc.name); got != tc.want {
			t.Errorf("MatchAny(%v, %q) = %v, want %v", tc.patterns, tc.name, got, tc.want)
		}
	}
}

func testBundle() *bundle.Bundle {
	b := bundle.New()
	b.Set("coverage", map[string]any{
		"total":   91.5,
		"files":   map[string]any{"main": 88.0, "util": 95.0},
		"secrets": map[string]any{"token": "hunter2"},
	})
	b.Set("build", map[string]any{"number": 7})
	b.Set("token", "hunter2")
	return b
}

func TestApplyExcludeWinsOverInclude(t *testing.T) {
	b := testBundle()
	Apply(b, []string{"*"}, []string{"token", "*.secrets"})

	if _, ok := b.Get("token"); ok {
		t.Fatal("excluded top-level key survived")
	}
	v, _ := b.Get("coverage")
	cov := v.(map[string]any)
	if _, ok := cov["secrets"]; ok {
		t.Fatal("excluded nested key survived")
	}
	if cov["total"] != 91.5 {
		t.Fatal("non-excluded sibling lost")
	}
	if _, ok := b.Get("build"); !ok {
		t.Fatal("unrelated key lost")
	}
}

func TestApplyIncludePrunesEverythingElse(t *testing.T) {
	b := testBundle()
	Apply(b, []string{"coverage.total"}, nil)

	if got := b.Keys(); !reflect.DeepEqual(got, []string{"coverage"}) {
		t.Fatalf("keys = %v, want [coverage]", got)
	}
	v, _ := b.Get("coverage")
	cov := v.(map[string]any)
	if len(cov) != 1 || cov["total"] != 91.5 {
		t.Fatalf("coverage = %v, want only total", cov)
	}
}

func TestApplyEmptyIncludeKeepsEverything(t *testing.T) {
	b := testBundle()
	Apply(b, nil, nil)
	if b.Len() != 3 {
		t.Fatalf("len = %d, want 3", b.Len())
	}
}

func TestApplyIncludedSubtreeKeptWhole(t *testing.T) {
	b := testBundle()
	Apply(b, []string{"coverage"}, nil)

	v, _ := b.Get("coverage")
	cov := v.(map[string]any)
	// The whole subtree matched and nothing is excluded, so nothing below
	// it is pruned.
	if _, ok := cov["files"]; !ok {
		t.Fatal("included subtree lost a child")
	}
}

func TestApplyExcludeInsideIncludedSubtree(t *testing.T) {
	b := bundle.New()
	b.Set("report", map[string]any{
		"summary": "ok",
		"auth": map[string]any{
			"user":  "jane",
			"token": "hunter2",
		},
	})
	Apply(b, []string{"report"}, []string{"report.auth.token"})

	v, ok := b.Get("report")
	if !ok {
		t.Fatal("included subtree lost")
	}
	rep := v.(map[string]any)
	if rep["summary"] != "ok" {
		t.Fatalf("report = %v, want summary kept", rep)
	}
	auth := rep["auth"].(map[string]any)
	if _, ok := auth["token"]; ok {
		t.Fatal("excluded descendant of an included subtree survived")
	}
	if auth["user"] != "jane" {
		t.Fatalf("auth = %v, want user kept", auth)
	}
}

func TestApplyDeepExcludeUnderDefaultInclude(t *testing.T) {
	b := bundle.New()
	b.Set("env", map[string]any{
		"host": "ci-01",
		"ci": map[string]any{
			"job":      "nightly",
			"password": "hunter2",
		},
	})
	Apply(b, nil, []string{"*.*.password"})

	v, _ := b.Get("env")
	env := v.(map[string]any)
	ci := env["ci"].(map[string]any)
	if _, ok := ci["password"]; ok {
		t.Fatal("deeply excluded key survived")
	}
	if ci["job"] != "nightly" || env["host"] != "ci-01" {
		t.Fatalf("env = %v, want everything but the password", env)
	}
}
