package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/kuralabs/flowbber/internal/journal"
)

// stageResult is the terminal state of one component execution.
type stageResult struct {
	inst  *Instance
	rec   journal.ExecutionRecord
	value any
	// cerr is set for failed and timed-out components, optional or not.
	cerr *ComponentError
}

type outcome struct {
	value any
	err   error
}

// runOne executes a single component under its own, independent timeout.
//
// The component body runs in its own goroutine. On timeout the goroutine is
// abandoned: its context is cancelled (which force-kills subprocess-backed
// components) and any late result lands in a buffered channel nobody reads.
// A component must never be able to block the stage past its budget.
func runOne(ctx context.Context, inst *Instance, call func(context.Context) (any, error)) stageResult {
	cctx := ctx
	cancel := func() {}
	if inst.Timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, inst.Timeout)
	}
	defer cancel()

	ch := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic: %v\n%s", r, debug.Stack())}
			}
		}()
		v, err := call(cctx)
		ch <- outcome{value: v, err: err}
	}()

	res := stageResult{
		inst: inst,
		rec: journal.ExecutionRecord{
			ID:   inst.ID,
			Type: inst.Type,
			Role: string(inst.Role),
		},
	}

	select {
	case o := <-ch:
		res.rec.Duration = time.Since(start)
		if o.err != nil {
			res.cerr = &ComponentError{Role: inst.Role, ID: inst.ID, Err: o.err}
			res.rec.Status = journal.StatusFailed
			res.rec.Error = o.err.Error()
			return res
		}
		res.rec.Status = journal.StatusOK
		res.value = o.value
		return res

	case <-cctx.Done():
		res.rec.Duration = time.Since(start)
		if err := ctx.Err(); err != nil {
			// External cancellation, not this component's budget.
			res.cerr = &ComponentError{Role: inst.Role, ID: inst.ID, Err: err}
			res.rec.Status = journal.StatusFailed
			res.rec.Error = err.Error()
			return res
		}
		res.cerr = &ComponentError{Role: inst.Role, ID: inst.ID, Err: ErrTimeout}
		res.rec.Status = journal.StatusTimedOut
		res.rec.Error = fmt.Sprintf("timed out after %s", inst.Timeout)
		return res
	}
}

// runConcurrent launches every component of the stage at once and joins
// all of them before returning: results are complete (one per component,
// each terminal) no matter how many failed. Order is completion order.
func runConcurrent(ctx context.Context, instances []*Instance, call func(context.Context, *Instance) (any, error)) []stageResult {
	resCh := make(chan stageResult, len(instances))
	for _, inst := range instances {
		go func(inst *Instance) {
			resCh <- runOne(ctx, inst, func(c context.Context) (any, error) {
				return call(c, inst)
			})
		}(inst)
	}

	results := make([]stageResult, 0, len(instances))
	for range instances {
		results = append(results, <-resCh)
	}
	return results
}

// stageError computes the aggregate outcome: nil unless at least one
// non-optional component failed or timed out.
func stageError(role Role, results []stageResult) *StageError {
	var failed []*ComponentError
	for _, res := range results {
		if res.cerr != nil && !res.inst.Optional {
			failed = append(failed, res.cerr)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &StageError{Role: role, Failed: failed}
}
