package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/kuralabs/flowbber/internal/core"
	"github.com/kuralabs/flowbber/internal/journal"
	"github.com/kuralabs/flowbber/internal/pipeline"
	"github.com/kuralabs/flowbber/internal/plugin"
	"github.com/kuralabs/flowbber/internal/plugin/builtin"
	"github.com/kuralabs/flowbber/internal/scheduler"
	"github.com/kuralabs/flowbber/pkg/logx"
)

func main() {
	var (
		defPath        string
		watch          bool
		logLevel       string
		logFile        string
		journalDriver  string
		journalPath    string
		journalTimeout time.Duration
	)
	flag.StringVar(&defPath, "pipeline", "./pipeline.toml", "path to pipeline definition (toml, yaml or json)")
	flag.BoolVar(&watch, "watch", false, "reload the definition on file changes (scheduled mode)")
	flag.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.StringVar(&logFile, "log-file", "", "also log to this file")
	flag.StringVar(&journalDriver, "journal", "", "journal driver: file, sqlite or empty to disable")
	flag.StringVar(&journalPath, "journal-path", "", "journal destination (directory for file, db path for sqlite)")
	flag.DurationVar(&journalTimeout, "journal-busy-timeout", 5*time.Second, "sqlite busy timeout")
	flag.Parse()

	os.Exit(run(defPath, watch, logLevel, logFile, journal.Config{
		Driver:      journalDriver,
		Path:        journalPath,
		BusyTimeout: journalTimeout,
	}))
}

func run(defPath string, watch bool, logLevel, logFile string, jcfg journal.Config) int {
	logCfg := logx.Config{Level: logLevel, Console: true}
	if logFile != "" {
		logCfg.File = logx.FileConfig{Enabled: true, Path: logFile}
	}
	svc, log := logx.New(logCfg)
	defer svc.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := plugin.NewRegistry()
	if err := builtin.Register(reg); err != nil {
		log.Error("registering builtin plugins", logx.Err(err))
		return 1
	}

	app, err := core.NewApp(core.Options{
		DefinitionPath: defPath,
		Journal:        jcfg,
		Watch:          watch,
		Registry:       reg,
		Log:            log,
	})
	if err != nil {
		log.Error("startup failed", logx.Err(err))
		return 1
	}
	defer app.Close()

	if !app.Scheduled() {
		entry, err := app.RunPipeline(ctx)
		if err != nil {
			var rerr *pipeline.RunError
			if errors.As(err, &rerr) {
				log.Error("pipeline failed", logx.Err(rerr.Cause))
			} else {
				log.Error("pipeline failed", logx.Err(err))
			}
			return 1
		}
		if entry.SinkFailed {
			log.Warn("pipeline succeeded but a sink failed",
				logx.String("run_id", entry.RunID))
		}
		return 0
	}

	notifyReady(ctx, log)

	reason, err := app.RunScheduled(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler stopped", logx.String("reason", string(reason)), logx.Err(err))
		return 1
	}
	log.Info("scheduler stopped", logx.String("reason", string(reason)))
	if reason == scheduler.StopFailure {
		return 1
	}
	return 0
}

// notifyReady tells systemd we are up and, when a watchdog is configured
// for the unit, keeps petting it until shutdown. No-op outside systemd.
func notifyReady(ctx context.Context, log logx.Logger) {
	if ok, _ := daemon.SdNotify(false, daemon.SdNotifyReady); !ok {
		return
	}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	log.Debug("systemd watchdog enabled",
		logx.String("interval", fmt.Sprint(interval)))
	go func() {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}
