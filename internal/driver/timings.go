package driver

import (
	"encoding/json"
	"fmt"

	"aggsynth/internal/diag"
	"aggsynth/internal/observ"
	"aggsynth/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records payload as an informational diagnostic
// whose note carries the JSON form. The bag grows if it is full.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "pipeline"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS),
		Primary:  source.Span{},
		Notes:    []diag.Note{{Span: source.Span{}, Msg: string(data)}},
	}
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
