// Package diag defines the diagnostic model shared by every semantic stage.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error (severity.go).
//   - Code – compact numeric identifier with a stable string form (codes.go).
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the source.Span the finding points at. Findings about
//     compiler-generated code carry source.NoSpan.
//   - Notes – optional secondary spans/messages.
//
// # Emitting
//
// Stages receive a *Handler. A Handler is a Reporter backed by a Bag and
// adds the propagation protocol used across the compiler:
//
//	if field == nil {
//		return h.EmitErr(diag.NewError(diag.SemaFieldNotFound, sp, msg))
//	}
//
// EmitErr records the diagnostic and returns ErrEmitted. Callers further up
// the chain only propagate ErrEmitted (errors.Is); they never report the
// same finding again.
//
// Handler.Scope runs a unit of work on a child handler and merges the
// child's findings back. It is how the finalization pass keeps one failing
// node from stopping its siblings.
//
// Codes in the internal range (Code.IsInternal) signal compiler bugs, not
// user errors; tests and logs rely on that split.
package diag
