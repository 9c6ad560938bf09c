// Package trace records what a build does while its units converge: which
// unit loop is running, every attempt, every disambiguation and, at debug
// level, every diagnostic record read or skipped.
//
//	autoimport build --trace=build.ndjson --trace-level=detail -- cargo build
//
// Events carry the unit and attempt they belong to. Both come from the
// context:
//
//	ctx = trace.ForUnit(ctx, unit.String())
//	ctx, span := trace.Start(ctx, trace.ScopeUnit, "resolve")
//	defer span.End("")
//	...
//	ctx = trace.ForAttempt(ctx, n)
//	trace.Decision(ctx, "Range", "std::ops::Range", "preferred", 1)
//
// Levels: phase shows builds and unit loops, detail adds attempts and
// decisions, debug adds records. At error level nothing is written; a ring
// keeps the detail events and the CLI prints it when the build fails.
// Children never trace, their stderr is the diagnostic stream.
package trace
