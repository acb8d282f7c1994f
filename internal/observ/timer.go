// Package observ measures the stages of a synthesis run.
package observ

import "time"

// Stage is one step of the pipeline, in run order.
type Stage uint8

const (
	StageLoad Stage = iota
	StageBind
	StageSynthesize
	StageLower
	stageCount
)

var stageNames = [stageCount]struct{ name, unit string }{
	StageLoad:       {"load", "files"},
	StageBind:       {"bind", "declarations"},
	StageSynthesize: {"synthesize", "member_sets"},
	StageLower:      {"lower", "uses"},
}

func (s Stage) String() string {
	if s >= stageCount {
		return "unknown"
	}
	return stageNames[s].name
}

// Unit names what the stage's item count counts.
func (s Stage) Unit() string {
	if s >= stageCount {
		return ""
	}
	return stageNames[s].unit
}

// Timer records each stage at most once. Not safe for concurrent use; the
// driver goroutine starts and stops every stage.
type Timer struct {
	started [stageCount]time.Time
	dur     [stageCount]time.Duration
	items   [stageCount]int
	stopped [stageCount]bool
}

// NewTimer returns a timer with no stages recorded.
func NewTimer() *Timer { return &Timer{} }

// Start marks the beginning of s. Restarting a stage discards its earlier
// measurement.
func (t *Timer) Start(s Stage) {
	if s >= stageCount {
		return
	}
	t.started[s] = time.Now()
	t.stopped[s] = false
}

// Stop closes s with the number of items it produced. Stopping a stage
// that was never started does nothing.
func (t *Timer) Stop(s Stage, items int) {
	if s >= stageCount || t.started[s].IsZero() {
		return
	}
	t.dur[s] = time.Since(t.started[s])
	t.items[s] = items
	t.stopped[s] = true
}

// PhaseReport is the serialized form of one stopped stage.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Items      int     `json:"items"`
	Unit       string  `json:"unit"`
}

// Report is every stopped stage in run order plus their total.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report skips stages that were not stopped, such as those after a
// cancellation.
func (t *Timer) Report() Report {
	var (
		report Report
		total  time.Duration
	)
	for s := range stageCount {
		if !t.stopped[s] {
			continue
		}
		total += t.dur[s]
		report.Phases = append(report.Phases, PhaseReport{
			Name:       s.String(),
			DurationMS: millis(t.dur[s]),
			Items:      t.items[s],
			Unit:       s.Unit(),
		})
	}
	report.TotalMS = millis(total)
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
