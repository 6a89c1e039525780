// Package core wires the executor together: definition manager, plugin
// registry, journal store, pipeline and scheduler. It exposes the two
// operations the command line front end consumes.
package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kuralabs/flowbber/internal/config"
	"github.com/kuralabs/flowbber/internal/journal"
	"github.com/kuralabs/flowbber/internal/pipeline"
	"github.com/kuralabs/flowbber/internal/plugin"
	"github.com/kuralabs/flowbber/internal/scheduler"
	logx "github.com/kuralabs/flowbber/pkg/logx"
)

// Options configures an App.
type Options struct {
	// DefinitionPath points at the pipeline definition (toml/yaml/json).
	DefinitionPath string
	// Journal configures the journal store; an empty driver disables it.
	Journal journal.Config
	// Watch reloads the definition on file changes during scheduled mode.
	Watch    bool
	Registry *plugin.Registry
	Log      logx.Logger
}

type App struct {
	name  string
	mgr   *config.Manager
	reg   *plugin.Registry
	store journal.Store
	log   logx.Logger

	watch bool
}

func NewApp(opts Options) (*App, error) {
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("a plugin registry is required")
	}

	mgr := config.NewManager(opts.DefinitionPath)
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	log.Info("loading pipeline definition", logx.String("path", opts.DefinitionPath))
	if _, err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("loading definition: %w", err)
	}

	store, err := journal.Open(opts.Journal, log.With(logx.String("comp", "journal")))
	if err != nil {
		return nil, fmt.Errorf("opening journal store: %w", err)
	}
	if store != nil {
		log.Info("journal enabled", logx.String("driver", opts.Journal.Driver))
	}

	// Pipeline name: definition file stem, used for pretty printing only.
	base := filepath.Base(opts.DefinitionPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return &App{
		name:  name,
		mgr:   mgr,
		reg:   opts.Registry,
		store: store,
		log:   log,
		watch: opts.Watch,
	}, nil
}

func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Scheduled reports whether the loaded definition carries a schedule block.
func (a *App) Scheduled() bool {
	return a.mgr.Get().Schedule != nil
}

// RunPipeline executes the pipeline exactly once and returns its journal
// entry. The error is non-nil iff the run failed.
func (a *App) RunPipeline(ctx context.Context) (*journal.Entry, error) {
	p, err := pipeline.New(a.name, a.mgr.Get(), a.reg, a.log)
	if err != nil {
		return nil, err
	}
	return a.runAndJournal(ctx, p)
}

// RunScheduled executes the pipeline repeatedly under the definition's
// schedule block and returns the scheduler's terminal reason.
func (a *App) RunScheduled(ctx context.Context) (scheduler.StopReason, error) {
	def := a.mgr.Get()
	if def.Schedule == nil {
		return scheduler.StopUnknown, fmt.Errorf("definition has no schedule block")
	}

	policy, err := scheduler.PolicyFromConfig(def.Schedule)
	if err != nil {
		return scheduler.StopUnknown, err
	}

	p, err := pipeline.New(a.name, def, a.reg, a.log)
	if err != nil {
		return scheduler.StopUnknown, err
	}

	sched := scheduler.New(&journaledRunner{app: a, p: p}, policy,
		a.log.With(logx.String("comp", "scheduler")))

	if a.watch {
		go func() {
			if err := a.mgr.Watch(ctx); err != nil {
				a.log.Warn("definition watcher exited", logx.Err(err))
			}
		}()
		sub := a.mgr.Subscribe(1)
		defer a.mgr.Unsubscribe(sub)
		go a.reloadLoop(ctx, sub, sched)
	}

	return sched.Run(ctx)
}

// reloadLoop rebuilds the pipeline from each published definition and
// stages it for the scheduler's next tick. Schedule block changes are not
// applied to a running scheduler; restart to change the policy.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Definition, sched *scheduler.Scheduler) {
	for {
		select {
		case <-ctx.Done():
			return
		case def, ok := <-sub:
			if !ok {
				return
			}
			p, err := pipeline.New(a.name, def, a.reg, a.log)
			if err != nil {
				a.log.Warn("reloaded definition rejected", logx.Err(err))
				continue
			}
			sched.Swap(&journaledRunner{app: a, p: p})
		}
	}
}

func (a *App) runAndJournal(ctx context.Context, p *pipeline.Pipeline) (*journal.Entry, error) {
	entry, runErr := p.Run(ctx)
	if entry != nil && a.store != nil {
		if err := a.store.Append(context.WithoutCancel(ctx), entry); err != nil {
			a.log.Error("journal append failed",
				logx.String("run_id", entry.RunID), logx.Err(err))
		}
	}
	return entry, runErr
}

// journaledRunner adapts a pipeline for the scheduler, persisting every
// run's entry on the way through.
type journaledRunner struct {
	app *App
	p   *pipeline.Pipeline
}

func (r *journaledRunner) Name() string { return r.p.Name() }

func (r *journaledRunner) Run(ctx context.Context) (*journal.Entry, error) {
	return r.app.runAndJournal(ctx, r.p)
}
