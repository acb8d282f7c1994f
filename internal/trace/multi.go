package trace

import "go.uber.org/multierr"

// MultiTracer fans out trace events to multiple tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

// NewMultiTracer creates a tracer emitting to every tracer given.
func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

// Flush flushes every tracer and reports all failures.
func (t *MultiTracer) Flush() error {
	var err error
	for _, tr := range t.tracers {
		err = multierr.Append(err, tr.Flush())
	}
	return err
}

// Close closes every tracer and reports all failures.
func (t *MultiTracer) Close() error {
	var err error
	for _, tr := range t.tracers {
		err = multierr.Append(err, tr.Close())
	}
	return err
}

func (t *MultiTracer) Level() Level { return t.level }

func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }
