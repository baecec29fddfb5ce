package viewer

import (
	"context"
	"time"

	"github.com/user/yuvview/pkg/framecache"
)

// ScrubPlan describes a simulated scrub through the source.
type ScrubPlan struct {
	From, To int
	Step     int           // Frames advanced per request; 0 means 1
	Dwell    time.Duration // Pause after each frame, as a viewer would while displaying it
}

// ScrubReport summarizes a scrub run.
type ScrubReport struct {
	Requested int
	Busy      int // Requests made while earlier loads were still running
	Errors    int

	Duration     time.Duration
	Slowest      time.Duration
	SlowestFrame int

	Stats framecache.Stats
}

// Scrub requests frames From..To in order, in either direction, the way a
// user dragging a slider would. Frame load errors are counted and the walk
// continues; only cancellation stops it early.
func (v *Viewer) Scrub(ctx context.Context, plan ScrubPlan) (ScrubReport, error) {
	if err := v.checkRange(plan.From, plan.To); err != nil {
		return ScrubReport{}, err
	}

	step := plan.Step
	if step <= 0 {
		step = 1
	}
	v.logger.Info("Scrubbing frames %d-%d (step %d)", plan.From, plan.To, step)

	var report ScrubReport
	start := time.Now()

	for _, idx := range span(plan.From, plan.To, step) {
		if v.cache.Loading() {
			report.Busy++
		}

		t0 := time.Now()
		_, err := v.cache.Get(ctx, idx)
		elapsed := time.Since(t0)

		report.Requested++
		if elapsed > report.Slowest || report.Requested == 1 {
			report.Slowest = elapsed
			report.SlowestFrame = idx
		}

		if err != nil {
			if ctx.Err() != nil {
				return v.finish(report, start), ctx.Err()
			}
			report.Errors++
			v.logger.Warn("Frame %d failed: %s", idx, err)
		}

		if plan.Dwell > 0 {
			select {
			case <-ctx.Done():
				return v.finish(report, start), ctx.Err()
			case <-time.After(plan.Dwell):
			}
		}
	}

	report = v.finish(report, start)
	v.logger.Info("Scrubbed %d frames in %d ms", report.Requested, report.Duration.Milliseconds())
	return report, nil
}

func (v *Viewer) finish(report ScrubReport, start time.Time) ScrubReport {
	report.Duration = time.Since(start)
	report.Stats = v.cache.Stats()
	return report
}
