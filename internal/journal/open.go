package journal

import (
	"context"
	"errors"
	"strings"

	logx "github.com/kuralabs/flowbber/pkg/logx"
)

// Store is the minimal persistence API used by the executor.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if journaling is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
