package observ

import "testing"

func TestTimerReportsStoppedStagesInRunOrder(t *testing.T) {
	tm := NewTimer()
	tm.Start(StageSynthesize)
	tm.Start(StageBind)
	tm.Stop(StageBind, 2)
	tm.Stop(StageSynthesize, 2)
	tm.Start(StageLower)  // never stopped
	tm.Stop(StageLoad, 9) // never started

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	bind, synth := rep.Phases[0], rep.Phases[1]
	if bind.Name != "bind" || bind.Items != 2 || bind.Unit != "declarations" {
		t.Fatalf("bind = %+v", bind)
	}
	if synth.Name != "synthesize" || synth.Unit != "member_sets" {
		t.Fatalf("synthesize = %+v", synth)
	}
	if rep.TotalMS < bind.DurationMS || rep.TotalMS < synth.DurationMS {
		t.Fatalf("total must cover every stage: %+v", rep)
	}
}

func TestTimerRestartDiscardsMeasurement(t *testing.T) {
	tm := NewTimer()
	tm.Start(StageLower)
	tm.Stop(StageLower, 3)
	tm.Start(StageLower)
	if got := tm.Report().Phases; len(got) != 0 {
		t.Fatalf("restarted stage must not report: %+v", got)
	}
	tm.Stop(StageLower, 4)
	if got := tm.Report().Phases; len(got) != 1 || got[0].Items != 4 {
		t.Fatalf("phases = %+v", got)
	}
}

func TestStageNames(t *testing.T) {
	if NewTimer().Report().Phases != nil {
		t.Fatalf("empty timer has no phases")
	}
	if Stage(200).String() != "unknown" || Stage(200).Unit() != "" {
		t.Fatalf("out-of-range stage")
	}
}
