package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "github.com/kuralabs/flowbber/pkg/logx"
)

// fileStore is a dependency-free journal backend.
//
// Each run is written as journal-<started>-<run_id>.json under the
// configured directory. The write goes through a temp file + rename so a
// crash mid-write never leaves a truncated journal behind.
type fileStore struct {
	log logx.Logger
	dir string

	mu sync.Mutex
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := strings.TrimSpace(cfg.Path)
	if dir == "" {
		return nil, errors.New("journal.path is required for file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, dir: dir}, nil
}

func (s *fileStore) Append(ctx context.Context, e *Entry) error {
	if s == nil {
		return ErrDisabled
	}
	if e == nil {
		return errors.New("nil journal entry")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}

	name := fmt.Sprintf("journal-%d-%s.json", e.StartedAt.Unix(), e.RunID)
	final := filepath.Join(s.dir, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	s.log.Debug("journal saved", logx.String("path", final), logx.String("run_id", e.RunID))
	return nil
}

func (s *fileStore) Close() error { return nil }
