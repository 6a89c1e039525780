package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	strftime "github.com/ncruces/go-strftime"

	"github.com/kuralabs/flowbber/internal/plugin"
)

// timestampSource collects the current time in several formats.
//
// Including one timestamp source in a pipeline gives every sink a single
// consistent timestamp for the whole run.
type timestampSource struct {
	// Timezone is an hour offset from UTC (0 = UTC, ±12). Nil means local.
	// epoch/epochf are unaffected: POSIX time has no timezone.
	Timezone *int   `json:"timezone"`
	Epoch    *bool  `json:"epoch"`
	Epochf   bool   `json:"epochf"`
	ISO8601  bool   `json:"iso8601"`
	Strftime string `json:"strftime"`
}

func newTimestampSource(raw json.RawMessage) (plugin.Source, error) {
	s := &timestampSource{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	if s.Timezone != nil && (*s.Timezone < -12 || *s.Timezone > 12) {
		return nil, fmt.Errorf("timezone: offset %d out of range [-12, 12]", *s.Timezone)
	}
	if !s.enabled(true) && !s.Epochf && !s.ISO8601 && s.Strftime == "" {
		return nil, fmt.Errorf("timestamp source with all formats disabled")
	}
	return s, nil
}

func (s *timestampSource) enabled(def bool) bool {
	if s.Epoch == nil {
		return def
	}
	return *s.Epoch
}

func (s *timestampSource) Collect(_ context.Context) (any, error) {
	now := time.Now()

	local := now
	if s.Timezone != nil {
		offset := *s.Timezone
		local = now.In(time.FixedZone(fmt.Sprintf("UTC%+d", offset), offset*3600))
	}

	data := map[string]any{}
	if s.Timezone != nil {
		data["timezone"] = *s.Timezone
	} else {
		data["timezone"] = nil
	}
	if s.enabled(true) {
		data["epoch"] = now.Unix()
	}
	if s.Epochf {
		data["epochf"] = float64(now.UnixNano()) / float64(time.Second)
	}
	if s.ISO8601 {
		data["iso8601"] = local.Format("2006-01-02T15:04:05-07:00")
	}
	if s.Strftime != "" {
		// Unknown specifiers pass through literally; there is no error path.
		data["strftime"] = strftime.Format(s.Strftime, local)
	}
	return data, nil
}
