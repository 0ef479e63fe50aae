package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/gyeh/mrf-extract/internal/mrf"
)

// LogReporter implements mrf.Reporter with throttled line-based output
// for non-TTY environments (CI, a redirected stderr). Tick lines are
// rate-limited; warnings and metadata always print immediately.
type LogReporter struct {
	taskID  string
	stage   string
	start   time.Time
	lastLog time.Time
}

// NewLogReporter creates a log-based reporter, tagging every line with
// a short task ID drawn from the environment when running under Modal,
// falling back to the local hostname.
func NewLogReporter() *LogReporter {
	taskID := os.Getenv("MODAL_TASK_ID")
	if taskID == "" {
		taskID, _ = os.Hostname()
	}
	if len(taskID) > 8 {
		taskID = taskID[len(taskID)-8:]
	}
	return &LogReporter{taskID: taskID, start: time.Now()}
}

const logInterval = 20 * time.Second

func (r *LogReporter) log(msg string) {
	ts := time.Now().Format("15:04:05")
	prefix := ""
	if r.taskID != "" {
		prefix = fmt.Sprintf("[ID|%s] ", r.taskID)
	}
	fmt.Fprintf(os.Stderr, "%s %s%s\n", ts, prefix, msg)
}

func (r *LogReporter) Stage(name string) {
	r.stage = name
	r.lastLog = time.Time{} // reset throttle so the next tick prints
	r.log(name)
}

func (r *LogReporter) Tick(counter string, n int) {
	if time.Since(r.lastLog) < logInterval {
		return
	}
	r.lastLog = time.Now()
	r.log(fmt.Sprintf("%s  %s: %s", r.stage, counter, humanCount(int64(n))))
}

func (r *LogReporter) Warn(msg string) {
	r.log("WARN: " + msg)
}

func (r *LogReporter) Meta(m *mrf.Meta) {
	r.log(fmt.Sprintf("%s (%s), updated %s, version %s",
		m.ReportingEntityName, m.ReportingEntityType, m.LastUpdatedOn, m.Version))
}

func (r *LogReporter) Done() {
	elapsed := time.Since(r.start).Truncate(time.Second)
	r.log(fmt.Sprintf("finished in %s", elapsed))
}
