// Package ledger - append-only access registry client
package ledger

import "errors"

// ErrReadOnlyContext a state-mutating call was attempted through an
// execution context with no signing identity
var ErrReadOnlyContext = errors.New("operation requires a signing ledger context")

// ErrWrongNetwork the designated channel could not be reached with the
// configured connection. The caller must point the client at the designated
// network before submitting; the client never switches networks itself.
var ErrWrongNetwork = errors.New("designated ledger channel unreachable")

// ErrEventParse the registration event payload could not be parsed. The
// caller falls back to a reconciliation read; this error only surfaces when
// the fallback fails too.
var ErrEventParse = errors.New("ledger event payload parse failed")
