package sinks

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

	"github.com/kuralabs/flowbber/internal/bundle"
	"github.com/kuralabs/flowbber/internal/config"
	"github.com/kuralabs/flowbber/internal/plugin"
)

// commandSink pipes the collected data as JSON into an arbitrary shell
// command's stdin.
//
// Like the command source, the command runs in its own process group and
// gets SIGTERM then SIGKILL on timeout or cancellation.
type commandSink struct {
	Command string `json:"command"`
	Dir     string `json:"dir"`
	// GracePeriod between SIGTERM and SIGKILL, Go duration string.
	// Empty or zero selects the 5s default.
	GracePeriod string   `json:"grace_period"`
	Env         []string `json:"env"`
	Pretty      bool     `json:"pretty"`

	grace time.Duration
}

func newCommandSink(raw json.RawMessage) (plugin.Sink, error) {
	s := &commandSink{}
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

func (s *commandSink) Distribute(ctx context.Context, snapshot *bundle.Bundle) error {
	var (
		body []byte
		err  error
	)
	if s.Pretty {
		body, err = json.MarshalIndent(snapshot, "", "    ")
	} else {
		body, err = json.Marshal(snapshot)
	}
	if err != nil {
		return fmt.Errorf("render data: %w", err)
	}

	c := exec.CommandContext(ctx, "/bin/sh", "-c", s.Command)
	c.Dir = s.Dir
	if len(s.Env) > 0 {
		c.Env = append(os.Environ(), s.Env...)
	}
	c.Stdin = bytes.NewReader(append(body, '\n'))

	var stderr bytes.Buffer
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

	if err := c.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("killed by context: %w", ctx.Err())
		}
		return fmt.Errorf("exit code %d: %w (stderr: %s)",
			c.ProcessState.ExitCode(), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
