package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kuralabs/flowbber/internal/bundle"
	"github.com/kuralabs/flowbber/internal/config"
	"github.com/kuralabs/flowbber/internal/journal"
	"github.com/kuralabs/flowbber/internal/plugin"
	logx "github.com/kuralabs/flowbber/pkg/logx"
)

// Pipeline is a definition bound to loaded plugin instances, ready to run.
// It can be run any number of times; each run owns a fresh bundle and
// produces exactly one journal entry.
type Pipeline struct {
	name string
	log  logx.Logger

	sources     []*Instance
	aggregators []*Instance
	sinks       []*Instance

	executed atomic.Uint64
}

// New validates the definition and resolves every component against the
// registry. Unknown types or invalid specs fail here, before anything runs.
func New(name string, def *config.Definition, reg *plugin.Registry, log logx.Logger) (*Pipeline, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	p := &Pipeline{name: name, log: log}

	var err error
	if p.sources, err = buildInstances(RoleSource, def.Sources, reg); err != nil {
		return nil, err
	}
	if p.aggregators, err = buildInstances(RoleAggregator, def.Aggregators, reg); err != nil {
		return nil, err
	}
	if p.sinks, err = buildInstances(RoleSink, def.Sinks, reg); err != nil {
		return nil, err
	}

	log.Info("pipeline built",
		logx.String("pipeline", name),
		logx.Int("sources", len(p.sources)),
		logx.Int("aggregators", len(p.aggregators)),
		logx.Int("sinks", len(p.sinks)),
	)
	return p, nil
}

func (p *Pipeline) Name() string { return p.name }

// Executed returns how many times this pipeline has been run.
func (p *Pipeline) Executed() uint64 { return p.executed.Load() }

// Run executes one complete cycle: sources (concurrent) -> aggregators
// (sequential) -> sinks (concurrent, one snapshot each).
//
// The returned entry is always complete: every declared component has a
// terminal record, with components that never ran marked skipped. The error
// is non-nil iff the run's overall status is failed; sink failures are
// reflected in entry.SinkFailed, never in the error.
func (p *Pipeline) Run(ctx context.Context) (*journal.Entry, error) {
	run := p.executed.Add(1)
	log := p.log.With(logx.String("pipeline", p.name), logx.Uint64("run", run))

	entry := &journal.Entry{
		RunID:     uuid.NewString(),
		Pipeline:  p.name,
		StartedAt: time.Now(),
		Status:    journal.StatusOK,
	}
	data := bundle.New()

	// Sources: concurrent, each contributing its own id as a bundle key in
	// completion order.
	log.Info("running sources", logx.Int("count", len(p.sources)))
	results := runConcurrent(ctx, p.sources, func(c context.Context, inst *Instance) (any, error) {
		return inst.source.Collect(c)
	})
	for _, res := range results {
		entry.Records = append(entry.Records, res.rec)
		switch {
		case res.cerr == nil:
			data.Set(res.inst.ID, res.value)
			log.Debug("source finished",
				logx.String("id", res.inst.ID),
				logx.Duration("took", res.rec.Duration),
			)
		case res.inst.Optional:
			log.Warn("optional source failed; continuing without its data",
				logx.String("id", res.inst.ID),
				logx.String("status", string(res.rec.Status)),
				logx.Err(res.cerr.Err),
			)
		default:
			log.Error("source failed",
				logx.String("id", res.inst.ID),
				logx.String("status", string(res.rec.Status)),
				logx.Err(res.cerr.Err),
			)
		}
	}
	if serr := stageError(RoleSource, results); serr != nil {
		return p.abort(entry, serr, p.aggregators, p.sinks)
	}

	// Aggregators: sequential, declaration order, exclusive bundle access.
	// Each runs against a scratch snapshot committed only on success, so a
	// failed (or abandoned after timeout) aggregator leaves the bundle
	// exactly as it was.
	log.Info("running aggregators", logx.Int("count", len(p.aggregators)))
	for i, inst := range p.aggregators {
		scratch := data.Snapshot()
		res := runOne(ctx, inst, func(c context.Context) (any, error) {
			return nil, inst.aggregator.Accumulate(c, scratch)
		})
		entry.Records = append(entry.Records, res.rec)

		switch {
		case res.cerr == nil:
			data = scratch
			log.Debug("aggregator finished",
				logx.String("id", inst.ID),
				logx.Duration("took", res.rec.Duration),
			)
		case inst.Optional:
			log.Warn("optional aggregator failed; bundle unchanged",
				logx.String("id", inst.ID),
				logx.String("status", string(res.rec.Status)),
				logx.Err(res.cerr.Err),
			)
		default:
			log.Error("aggregator failed",
				logx.String("id", inst.ID),
				logx.String("status", string(res.rec.Status)),
				logx.Err(res.cerr.Err),
			)
			serr := &StageError{Role: RoleAggregator, Failed: []*ComponentError{res.cerr}}
			return p.abort(entry, serr, p.aggregators[i+1:], p.sinks)
		}
	}

	// Sinks: concurrent, each over its own deep snapshot of the now frozen
	// bundle. Failures are recorded but never fail the run.
	log.Info("running sinks", logx.Int("count", len(p.sinks)))
	results = runConcurrent(ctx, p.sinks, func(c context.Context, inst *Instance) (any, error) {
		return nil, inst.sink.Distribute(c, data.Snapshot())
	})
	for _, res := range results {
		entry.Records = append(entry.Records, res.rec)
		switch {
		case res.cerr == nil:
			log.Debug("sink finished",
				logx.String("id", res.inst.ID),
				logx.Duration("took", res.rec.Duration),
			)
		case res.inst.Optional:
			log.Warn("optional sink failed",
				logx.String("id", res.inst.ID),
				logx.String("status", string(res.rec.Status)),
				logx.Err(res.cerr.Err),
			)
		default:
			log.Error("sink failed",
				logx.String("id", res.inst.ID),
				logx.String("status", string(res.rec.Status)),
				logx.Err(res.cerr.Err),
			)
		}
	}
	if serr := stageError(RoleSink, results); serr != nil {
		entry.SinkFailed = true
	}

	entry.EndedAt = time.Now()
	log.Info("run finished",
		logx.String("run_id", entry.RunID),
		logx.String("status", string(entry.Status)),
		logx.Bool("sink_failed", entry.SinkFailed),
		logx.Duration("took", entry.EndedAt.Sub(entry.StartedAt)),
	)
	return entry, nil
}

// abort finalizes a failed run: the remaining, never-started components get
// skipped records so the journal still covers every declared component.
func (p *Pipeline) abort(entry *journal.Entry, serr *StageError, skipped ...[]*Instance) (*journal.Entry, error) {
	for _, group := range skipped {
		for _, inst := range group {
			entry.Records = append(entry.Records, journal.ExecutionRecord{
				ID:     inst.ID,
				Type:   inst.Type,
				Role:   string(inst.Role),
				Status: journal.StatusSkipped,
			})
		}
	}
	entry.Status = journal.StatusFailed
	entry.EndedAt = time.Now()

	p.log.Error("run failed",
		logx.String("pipeline", p.name),
		logx.String("run_id", entry.RunID),
		logx.Err(serr),
	)
	return entry, &RunError{Pipeline: p.name, Cause: serr}
}
