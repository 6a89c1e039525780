package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "github.com/kuralabs/flowbber/pkg/logx"
)

func sampleEntry() *Entry {
	started := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return &Entry{
		RunID:     "0b84d9f0-0000-4000-8000-000000000001",
		Pipeline:  "sample",
		StartedAt: started,
		EndedAt:   started.Add(2 * time.Second),
		Status:    StatusFailed,
		Records: []ExecutionRecord{
			{ID: "s1", Type: "env", Role: "source", Status: StatusOK, Duration: time.Second},
			{ID: "s2", Type: "json", Role: "source", Status: StatusTimedOut, Duration: 2 * time.Second, Error: "timed out after 2s"},
			{ID: "out", Type: "print", Role: "sink", Status: StatusSkipped},
		},
	}
}

func TestOpenDisabledAndUnknownDrivers(t *testing.T) {
	for _, driver := range []string{"", "none"} {
		store, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		if store != nil {
			t.Fatalf("driver %q: got a store, want nil", driver)
		}
	}
	if _, err := Open(Config{Driver: "carrier-pigeon", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestFileStoreWritesOneDocumentPerRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journals")
	store, err := Open(Config{Driver: "file", Path: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	e := sampleEntry()
	if err := store.Append(context.Background(), e); err != nil {
		t.Fatalf("append: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "journal-*-"+e.RunID+".json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("journal files = %v (err %v), want exactly one", matches, err)
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	var got Entry
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("journal is not valid json: %v", err)
	}
	if got.RunID != e.RunID || got.Status != StatusFailed || len(got.Records) != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Records[1].Status != StatusTimedOut || got.Records[1].Error == "" {
		t.Fatalf("timed out record lost detail: %+v", got.Records[1])
	}
}

func TestFileStoreRejectsBadInput(t *testing.T) {
	store, err := Open(Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Append(context.Background(), nil); err == nil {
		t.Fatal("nil entry accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Append(ctx, sampleEntry()); err == nil {
		t.Fatal("append on a cancelled context succeeded")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	e := sampleEntry()
	if err := store.Append(context.Background(), e); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Appending the same run twice violates the primary key.
	if err := store.Append(context.Background(), e); err == nil {
		t.Fatal("duplicate run id accepted")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
}
