package trace

import (
	"context"
	"strconv"
	"strings"
	"time"
)

func note(ctx context.Context, kind Kind, scope Scope, name, detail string, fields map[string]string) {
	t := FromContext(ctx)
	if !t.Level().keepsScope(scope) {
		return
	}
	at := whereOf(ctx)
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     kind,
		Scope:    scope,
		ParentID: at.span,
		Unit:     at.unit,
		Attempt:  at.attempt,
		Name:     name,
		Detail:   detail,
		Fields:   fields,
	})
}

// Decision records how a group of candidates for ident was settled.
func Decision(ctx context.Context, ident, winner, reason string, losers int) {
	note(ctx, KindDecision, ScopeAttempt, ident, winner, map[string]string{
		"reason": reason,
		"losers": strconv.Itoa(losers),
	})
}

// Record notes a diagnostic record that was read for candidates.
func Record(ctx context.Context, message string) {
	note(ctx, KindRecord, ScopeRecord, "record", headline(message), nil)
}

// Skipped notes a diagnostic record that was ignored and why.
func Skipped(ctx context.Context, why, message string) {
	note(ctx, KindSkipped, ScopeRecord, why, headline(message), nil)
}

func headline(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return line
}
