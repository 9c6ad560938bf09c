// Package diag defines the wire schema of compiler diagnostics consumed by the
// fixpoint loop.
//
// # Purpose
//
//   - Describe one structured diagnostic line (rustc `--error-format=json`)
//     as an explicit, versioned data contract instead of ad hoc field lookups.
//   - Decode lines defensively: unknown fields are ignored, a record without
//     its required fields is rejected and skipped by callers.
//   - Offer a Decoder that remembers decoded lines, because the same
//     diagnostics come back on every attempt until they are fixed.
//
// # Scope
//
// Package diag does not interpret messages. Turning a Record into fix
// candidates lives in internal/fix; deciding which records belong to a
// compilation unit is done by the driver through Record.ConfinedTo.
//
// # Data model
//
// Record is the central type. It contains:
//
//   - Message – required human text, the only field the extractors match on.
//   - Code – optional classification ({"code": "E0433", ...}); nil means the
//     compiler did not classify the diagnostic.
//   - Level – "error", "warning", "note", "help", ...
//   - Spans – source locations; IsPrimary marks the canonical one.
//   - Children – nested notes/help records; their spans may carry a
//     SuggestedReplacement with ready-to-insert text.
//
// Records handed out by a Decoder are shared between attempts and must be
// treated as read-only.
package diag
