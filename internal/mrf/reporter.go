package mrf

// Reporter receives diagnostics and progress signals from the core as
// it walks the document (spec §4.L). Implementations range from an
// interactive progress bar to a throttled log line to a no-op; the
// core never branches on which one it has.
type Reporter interface {
	// Stage announces the start of a document-level phase (the core
	// announces "in-network items").
	Stage(name string)
	// Tick reports progress against a named counter (element or byte
	// count). Implementations may throttle their own output.
	Tick(counter string, n int)
	// Warn surfaces a non-fatal, advisory condition.
	Warn(msg string)
	// Meta reports the root metadata once fully populated.
	Meta(m *Meta)
	// Done announces run completion; implementations flush/close here.
	Done()
}

// NoopReporter discards everything, warnings included. It is the
// Reporter the CLI uses for --progress=none, and suits library callers
// that have no interest in progress output.
type NoopReporter struct{}

func (NoopReporter) Stage(string)     {}
func (NoopReporter) Tick(string, int) {}
func (NoopReporter) Warn(string)      {}
func (NoopReporter) Meta(*Meta)       {}
func (NoopReporter) Done()            {}
