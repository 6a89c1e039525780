package pipeline

import (
	"fmt"
	"time"

	"github.com/kuralabs/flowbber/internal/config"
	"github.com/kuralabs/flowbber/internal/plugin"
)

// Role identifies which phase of a run a component belongs to.
type Role string

const (
	RoleSource     Role = "source"
	RoleAggregator Role = "aggregator"
	RoleSink       Role = "sink"
)

// Instance is a ComponentSpec bound to a loaded implementation. Exactly one
// of the capability fields is set, matching Role.
type Instance struct {
	Index    int
	Role     Role
	Type     string
	ID       string
	Optional bool
	Timeout  time.Duration

	source     plugin.Source
	aggregator plugin.Aggregator
	sink       plugin.Sink
}

func (in *Instance) String() string {
	return fmt.Sprintf("#%d %s.%s.%s", in.Index, in.Role, in.Type, in.ID)
}

func buildInstances(role Role, specs []config.ComponentSpec, reg *plugin.Registry) ([]*Instance, error) {
	out := make([]*Instance, 0, len(specs))
	for i, spec := range specs {
		timeout, err := spec.ParseTimeout()
		if err != nil {
			return nil, err
		}

		in := &Instance{
			Index:    i,
			Role:     role,
			Type:     spec.Type,
			ID:       spec.ID,
			Optional: spec.Optional,
			Timeout:  timeout,
		}

		switch role {
		case RoleSource:
			in.source, err = reg.NewSource(spec.Type, spec.Config)
		case RoleAggregator:
			in.aggregator, err = reg.NewAggregator(spec.Type, spec.Config)
		case RoleSink:
			in.sink, err = reg.NewSink(spec.Type, spec.Config)
		default:
			err = fmt.Errorf("unknown role %q", role)
		}
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", role, spec.ID, err)
		}

		out = append(out, in)
	}
	return out, nil
}
