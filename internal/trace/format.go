package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Format is how events are written.
type Format uint8

const (
	FormatAuto   Format = iota // by output file extension
	FormatText                 // one line per event for people
	FormatNDJSON               // one JSON object per line
)

// ParseFormat reads a --trace-format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// FormatEvent renders ev as one line, newline included.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return eventJSON(ev)
	}
	return eventText(ev)
}

type jsonEvent struct {
	Time      string            `json:"time"`
	Seq       uint64            `json:"seq"`
	Kind      string            `json:"kind"`
	Scope     string            `json:"scope"`
	SpanID    uint64            `json:"span,omitempty"`
	ParentID  uint64            `json:"parent,omitempty"`
	Unit      string            `json:"unit,omitempty"`
	Attempt   int               `json:"attempt,omitempty"`
	Name      string            `json:"name"`
	Detail    string            `json:"detail,omitempty"`
	ElapsedMS float64           `json:"elapsed_ms,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func eventJSON(ev *Event) []byte {
	data, err := json.Marshal(jsonEvent{
		Time:      ev.Time.Format(time.RFC3339Nano),
		Seq:       ev.Seq,
		Kind:      ev.Kind.String(),
		Scope:     ev.Scope.String(),
		SpanID:    ev.SpanID,
		ParentID:  ev.ParentID,
		Unit:      ev.Unit,
		Attempt:   ev.Attempt,
		Name:      ev.Name,
		Detail:    ev.Detail,
		ElapsedMS: float64(ev.Elapsed.Microseconds()) / 1000,
		Fields:    ev.Fields,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

var marks = map[Kind]string{
	KindBegin:     "→",
	KindEnd:       "←",
	KindDecision:  "?",
	KindRecord:    "•",
	KindSkipped:   "-",
	KindHeartbeat: "♡",
}

// eventText renders
//
//	15:04:05.000 src/main.rs#2   ← attempt (changed) 41ms {proposed=2}
//
// indented by scope, fields sorted by key.
func eventText(ev *Event) []byte {
	var sb strings.Builder
	sb.WriteString(ev.Time.Format("15:04:05.000"))
	if ev.Unit != "" {
		sb.WriteByte(' ')
		sb.WriteString(ev.Unit)
		if ev.Attempt > 0 {
			fmt.Fprintf(&sb, "#%d", ev.Attempt)
		}
	}
	sb.WriteByte(' ')
	if ev.Scope > ScopeDriver {
		sb.WriteString(strings.Repeat("  ", int(ev.Scope-ScopeDriver)))
	}
	if m, ok := marks[ev.Kind]; ok {
		sb.WriteString(m)
		sb.WriteByte(' ')
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", ev.Detail)
	}
	if ev.Kind == KindEnd {
		sb.WriteByte(' ')
		sb.WriteString(ev.Elapsed.Round(time.Millisecond).String())
	}
	if len(ev.Fields) > 0 {
		sb.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(ev.Fields)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + "=" + ev.Fields[k])
		}
		sb.WriteByte('}')
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
