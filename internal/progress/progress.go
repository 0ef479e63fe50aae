// Package progress adapts the extraction core's Reporter interface
// (internal/mrf) to three presentation tiers: an interactive mpb bar
// for a terminal, a throttled line logger for a non-interactive
// stream, and a silent no-op (mrf.NoopReporter).
package progress

import (
	"fmt"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/gyeh/mrf-extract/internal/mrf"
)

// MPBReporter renders one live bar for the current stage and its
// element counter, and prints warnings and metadata as static log
// lines above it, the way the original multi-file manager logged a
// warning line per tracked file.
type MPBReporter struct {
	container *mpb.Progress
	bar       *mpb.Bar
	stage     atomic.Value
	detail    atomic.Value
}

// NewMPBReporter creates an interactive reporter.
func NewMPBReporter() *MPBReporter {
	r := &MPBReporter{container: mpb.New(mpb.WithWidth(60))}
	r.stage.Store("starting")
	r.detail.Store("")
	r.bar = r.container.AddBar(0,
		mpb.PrependDecorators(decor.Name("mrf-extract ", decor.WCSyncSpaceR)),
		mpb.AppendDecorators(decor.Any(func(decor.Statistics) string {
			stage := r.stage.Load().(string)
			detail := r.detail.Load().(string)
			if detail == "" {
				return stage
			}
			return stage + "  " + detail
		})),
	)
	return r
}

func (r *MPBReporter) Stage(name string) {
	r.stage.Store(name)
	r.detail.Store("")
}

func (r *MPBReporter) Tick(counter string, n int) {
	r.detail.Store(fmt.Sprintf("%s: %s", counter, humanCount(int64(n))))
	r.bar.SetCurrent(int64(n))
}

func (r *MPBReporter) Warn(msg string) {
	logBar := r.container.AddBar(0,
		mpb.PrependDecorators(decor.Name("  warning: "+msg)),
	)
	logBar.Abort(false)
}

func (r *MPBReporter) Meta(m *mrf.Meta) {
	logBar := r.container.AddBar(0,
		mpb.PrependDecorators(decor.Name(fmt.Sprintf(
			"  %s (%s), updated %s, version %s",
			m.ReportingEntityName, m.ReportingEntityType, m.LastUpdatedOn, m.Version,
		))),
	)
	logBar.Abort(false)
}

func (r *MPBReporter) Done() {
	r.bar.Abort(false)
	r.container.Wait()
}

// humanCount formats n with comma separators (e.g. "1,234,567").
func humanCount(n int64) string {
	if n < 0 {
		return "-" + humanCount(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return humanCount(n/1000) + fmt.Sprintf(",%03d", n%1000)
}
