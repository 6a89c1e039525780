package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	st "github.com/showwin/speedtest-go/speedtest"

	"github.com/kuralabs/flowbber/internal/plugin"
)

// speedSource measures internet connection speed against the closest
// speedtest.net server.
//
// Data collected: ping (ms), download and upload (Mbps), server host.
// This source performs real network transfers; give it a generous timeout.
type speedSource struct {
	// ServerCount caps how many nearby candidate servers are considered.
	ServerCount int `json:"server_count"`
	// MaxConnections caps parallel connections during transfer tests.
	MaxConnections int `json:"max_connections"`
}

func newSpeedSource(raw json.RawMessage) (plugin.Source, error) {
	s := &speedSource{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	if s.ServerCount <= 0 {
		s.ServerCount = 5
	}
	if s.MaxConnections <= 0 {
		s.MaxConnections = 4
	}
	return s, nil
}

func (s *speedSource) Collect(ctx context.Context) (any, error) {
	// Avoid package-level speedtest helpers; speedtest-go can keep
	// package-level state.
	stc := st.New(st.WithUserConfig(&st.UserConfig{
		MaxConnections: s.MaxConnections,
	}))
	stc.SetNThread(s.MaxConnections)
	defer func() {
		stc.Snapshots().Clean()
		stc.Reset()
	}()

	servers, err := stc.FetchServerListContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch server list: %w", err)
	}
	if a := servers.Available(); a != nil {
		servers = *a
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers available")
	}

	sort.Slice(servers, func(i, j int) bool { return servers[i].Distance < servers[j].Distance })
	n := s.ServerCount
	if n > len(servers) {
		n = len(servers)
	}

	// Full test against the first candidate that completes; candidates are
	// distance-ordered so this normally means the closest working server.
	var lastErr error
	for _, srv := range servers[:n] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := srv.PingTestContext(ctx, nil); err != nil {
			lastErr = err
			continue
		}
		if err := srv.DownloadTestContext(ctx); err != nil {
			lastErr = err
			continue
		}
		if err := srv.UploadTestContext(ctx); err != nil {
			lastErr = err
			continue
		}

		return map[string]any{
			"server":   srv.Host,
			"ping":     float64(srv.Latency.Milliseconds()),
			"download": srv.DLSpeed.Mbps(),
			"upload":   srv.ULSpeed.Mbps(),
		}, nil
	}
	return nil, fmt.Errorf("speed test failed for all %d candidate servers: %w", n, lastErr)
}
