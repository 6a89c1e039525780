package bundle

import (
	"reflect"
	"testing"
)

func TestInsertionOrderSurvivesUpdates(t *testing.T) {
	b := New()
	b.Set("s1", 1)
	b.Set("s2", 2)
	b.Set("s3", 3)
	b.Set("s1", 10) // update must not move the key

	want := []string{"s1", "s2", "s3"}
	if got := b.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if v, _ := b.Get("s1"); v != 10 {
		t.Fatalf("s1 = %v, want 10", v)
	}
}

func TestDeleteRemovesKeyAndOrder(t *testing.T) {
	b := New()
	b.Set("a", 1)
	b.Set("b", 2)
	b.Set("c", 3)
	b.Delete("b")
	b.Delete("missing") // no-op

	want := []string{"a", "c"}
	if got := b.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if _, ok := b.Get("b"); ok {
		t.Fatal("deleted key still present")
	}
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	b := New()
	b.Set("s1", map[string]any{
		"nested": map[string]any{"n": 1},
		"list":   []any{1, 2, 3},
	})

	snap := b.Snapshot()

	// Mutate the copy at every depth.
	v, _ := snap.Get("s1")
	m := v.(map[string]any)
	m["nested"].(map[string]any)["n"] = 999
	m["list"].([]any)[0] = 999
	snap.Set("extra", true)
	snap.Delete("s1")

	orig, _ := b.Get("s1")
	om := orig.(map[string]any)
	if n := om["nested"].(map[string]any)["n"]; n != 1 {
		t.Fatalf("nested value mutated through snapshot: %v", n)
	}
	if first := om["list"].([]any)[0]; first != 1 {
		t.Fatalf("list value mutated through snapshot: %v", first)
	}
	if _, ok := b.Get("extra"); ok {
		t.Fatal("snapshot key leaked into original")
	}
	if b.Len() != 1 {
		t.Fatalf("original len = %d, want 1", b.Len())
	}
}

func TestMarshalJSONKeepsOrder(t *testing.T) {
	b := New()
	b.Set("z", 1)
	b.Set("a", map[string]any{"x": "y"})
	b.Set("m", []any{1, "two"})

	got, err := b.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"z":1,"a":{"x":"y"},"m":[1,"two"]}`
	if string(got) != want {
		t.Fatalf("json = %s, want %s", got, want)
	}
}

func TestDeepCopyStructFallback(t *testing.T) {
	type point struct {
		X int `json:"x"`
	}
	b := New()
	b.Set("p", point{X: 1})

	snap := b.Snapshot()
	v, _ := snap.Get("p")
	// Structs round-trip through JSON into a generic map.
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("copied value is %T, want map", v)
	}
	if m["x"] != float64(1) {
		t.Fatalf("x = %v, want 1", m["x"])
	}
}
