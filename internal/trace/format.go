package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Format is the output encoding of trace events.
type Format uint8

const (
	FormatText   Format = iota // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// FormatFor picks NDJSON for *.ndjson and *.jsonl paths, text otherwise.
func FormatFor(path string) Format {
	if strings.HasSuffix(path, ".ndjson") || strings.HasSuffix(path, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

// FormatEvent encodes ev.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Subject  string            `json:"subject,omitempty"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	data, err := json.Marshal(jsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		Name:     ev.Name,
		Subject:  ev.Subject,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

// formatText renders `#seq [scope] →/← name subject (detail) {k=v}`.
func formatText(ev *Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%06d [%s] ", ev.Seq, ev.Scope)
	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}
	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("→ ")
	case KindSpanEnd:
		sb.WriteString("← ")
	case KindPoint:
		sb.WriteString("• ")
	}
	sb.WriteString(ev.Name)
	if ev.Subject != "" {
		sb.WriteByte(' ')
		sb.WriteString(ev.Subject)
	}
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}
	if len(ev.Extra) > 0 {
		sb.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
