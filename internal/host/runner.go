// Package host provides a reference in-process host that drives a policy
// block through the fixed callback protocol: Configure, Start, one Step per
// tick, Terminate. Real simulation hosts replace this package; the block
// itself never depends on it.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tiller/internal/block"
	"tiller/internal/model"
	"tiller/internal/storage"
)

// Feed produces one observation vector per tick by filling obs in place. It
// returns false when the feed is exhausted.
type Feed interface {
	Next(obs []float64) (bool, error)
}

// SliceFeed replays a fixed set of observation rows.
type SliceFeed struct {
	rows [][]float64
	next int
}

func NewSliceFeed(rows [][]float64) *SliceFeed {
	return &SliceFeed{rows: rows}
}

func (f *SliceFeed) Next(obs []float64) (bool, error) {
	if f.next >= len(f.rows) {
		return false, nil
	}
	row := f.rows[f.next]
	if len(row) != len(obs) {
		return false, fmt.Errorf("feed row %d width mismatch: got=%d want=%d", f.next, len(row), len(obs))
	}
	copy(obs, row)
	f.next++
	return true, nil
}

// Options controls one harness run.
type Options struct {
	// RunID identifies the run in the trace store; generated when empty.
	RunID string
	// MaxTicks bounds the run; 0 means run until the feed is exhausted.
	MaxTicks int
	// Store receives the run summary and per-tick trace when non-nil.
	Store storage.Store
	// OnAction is invoked after each successful tick with the action vector.
	// The slice is reused across ticks.
	OnAction func(tick int, act []float64) error
}

// Result summarizes a completed (or faulted) run.
type Result struct {
	RunID string
	Ticks int
}

type Runner struct {
	log zerolog.Logger
	now func() time.Time
}

func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log, now: time.Now}
}

// Run drives blk through one full configure-to-terminate cycle. Terminate
// always runs, including when an earlier phase faults, so block resources are
// released on abnormal termination. The first error encountered is returned;
// the trace recorded up to the fault is still persisted.
func (r *Runner) Run(ctx context.Context, blk *block.Block, cfg block.Config, feed Feed, opts Options) (Result, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := Result{RunID: runID}

	run := model.RunRecord{
		ID:           runID,
		ArtifactPath: cfg.ArtifactPath,
		ObsWidth:     cfg.ObsWidth,
		ActWidth:     cfg.ActWidth,
		StartedAtUTC: r.now().UTC().Format(time.RFC3339),
	}

	var trace []model.TickRecord
	runErr := func() error {
		defer blk.Terminate()

		if err := blk.Configure(cfg); err != nil {
			return err
		}

		r.log.Info().
			Str("run_id", runID).
			Str("artifact", cfg.ArtifactPath).
			Int("obs_width", cfg.ObsWidth).
			Int("act_width", cfg.ActWidth).
			Msg("block configured")

		if err := blk.Start(ctx); err != nil {
			return err
		}
		r.log.Info().Str("run_id", runID).Msg("policy artifact loaded")

		obs := make([]float64, cfg.ObsWidth)
		act := make([]float64, cfg.ActWidth)
		for tick := 0; opts.MaxTicks == 0 || tick < opts.MaxTicks; tick++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := feed.Next(obs)
			if err != nil {
				return fmt.Errorf("tick %d: read observation: %w", tick, err)
			}
			if !ok {
				break
			}

			if err := blk.Step(obs, act); err != nil {
				return fmt.Errorf("tick %d: %w", tick, err)
			}
			result.Ticks++

			if opts.Store != nil {
				trace = append(trace, model.TickRecord{
					Tick:        tick,
					Observation: append([]float64(nil), obs...),
					Action:      append([]float64(nil), act...),
				})
			}
			if opts.OnAction != nil {
				if err := opts.OnAction(tick, act); err != nil {
					return fmt.Errorf("tick %d: action sink: %w", tick, err)
				}
			}
		}
		return nil
	}()

	if runErr != nil {
		run.Fault = runErr.Error()
		r.log.Error().Str("run_id", runID).Err(runErr).Msg("run faulted")
	} else {
		r.log.Info().Str("run_id", runID).Int("ticks", result.Ticks).Msg("run completed")
	}
	run.Ticks = result.Ticks

	if opts.Store != nil {
		if err := opts.Store.SaveRun(ctx, run); err != nil {
			if runErr == nil {
				runErr = fmt.Errorf("save run: %w", err)
			}
		} else if err := opts.Store.SaveTicks(ctx, runID, trace); err != nil {
			if runErr == nil {
				runErr = fmt.Errorf("save trace: %w", err)
			}
		}
	}

	return result, runErr
}
