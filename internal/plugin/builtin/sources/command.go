package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/kuralabs/flowbber/internal/config"
	"github.com/kuralabs/flowbber/internal/plugin"
)

// commandSource runs an arbitrary shell command and collects its exit
// code and output.
//
// The command runs in its own process group; on timeout or cancellation
// the whole group gets SIGTERM, then SIGKILL after the grace period. This
// is the one source whose termination is forced at the OS level, so it is
// safe to point at programs that ignore polite shutdown.
type commandSource struct {
	Command string `json:"command"`
	Dir     string `json:"dir"`
	// GracePeriod between SIGTERM and SIGKILL, Go duration string.
	// Empty or zero selects the 5s default.
	GracePeriod string   `json:"grace_period"`
	Env         []string `json:"env"`

	grace time.Duration
}

func newCommandSource(raw json.RawMessage) (plugin.Source, error) {
	s := &commandSource{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Command) == "" {
		return nil, fmt.Errorf("command is required")
	}
	grace, err := config.ParseDurationOrDefault("grace_period", s.GracePeriod, 5*time.Second)
	if err != nil {
		return nil, err
	}
	s.grace = grace
	return s, nil
}

func (s *commandSource) Collect(ctx context.Context) (any, error) {
	c := exec.CommandContext(ctx, "/bin/sh", "-c", s.Command)
	c.Dir = s.Dir
	if len(s.Env) > 0 {
		c.Env = append(os.Environ(), s.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// Use a process group so we can terminate the entire tree.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = s.grace

	start := time.Now()
	err := c.Run()
	took := time.Since(start)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("killed by context: %w", ctx.Err())
	}
	if err != nil {
		return nil, fmt.Errorf("exit code %d: %w (stderr: %s)",
			c.ProcessState.ExitCode(), err, strings.TrimSpace(stderr.String()))
	}

	return map[string]any{
		"exitcode":    c.ProcessState.ExitCode(),
		"stdout":      stdout.String(),
		"stderr":      stderr.String(),
		"duration_ms": took.Milliseconds(),
	}, nil
}
