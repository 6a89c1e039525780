package sources

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/kuralabs/flowbber/internal/plugin"
)

// jsonSource fetches and parses a local or remote (http, https) JSON file.
type jsonSource struct {
	// FileURI accepts file://, http:// and https:// schemes. A bare path
	// is treated as file://.
	FileURI   string `json:"file_uri"`
	VerifySSL *bool  `json:"verify_ssl"`
}

func newJSONSource(raw json.RawMessage) (plugin.Source, error) {
	s := &jsonSource{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.FileURI) == "" {
		return nil, fmt.Errorf("file_uri is required")
	}
	return s, nil
}

func (s *jsonSource) Collect(ctx context.Context) (any, error) {
	b, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.FileURI, err)
	}
	return data, nil
}

func (s *jsonSource) fetch(ctx context.Context) ([]byte, error) {
	uri := s.FileURI
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		client := http.DefaultClient
		if s.VerifySSL != nil && !*s.VerifySSL {
			client = &http.Client{Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // explicit opt-out
			}}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching %s: status %s", uri, resp.Status)
		}
		return io.ReadAll(resp.Body)

	default:
		return os.ReadFile(strings.TrimPrefix(uri, "file://"))
	}
}
