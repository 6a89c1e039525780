package sources

import (
	"context"
	"encoding/json"
	"os/user"
	"strconv"

	"github.com/kuralabs/flowbber/internal/plugin"
)

// userSource collects the current user's uid and login name.
type userSource struct{}

func newUserSource(raw json.RawMessage) (plugin.Source, error) {
	s := &userSource{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *userSource) Collect(_ context.Context) (any, error) {
	u, err := user.Current()
	if err != nil {
		return nil, err
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		// Non-numeric uids exist on some platforms; keep the raw string.
		return map[string]any{"uid": u.Uid, "user": u.Username}, nil
	}
	return map[string]any{"uid": uid, "user": u.Username}, nil
}
