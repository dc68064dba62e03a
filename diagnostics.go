package tricycle

// Diagnostics receives structured events the scheduler emits while it works:
// integrity repairs, discarded intents, synthetic content injection. It is
// injected at construction time; there is no ambient debug singleton.
//
// Implementations must be safe for use from the goroutine that owns the
// scheduler; events are emitted synchronously.
type Diagnostics interface {
	Event(kind string, fields map[string]any)
}

// nopDiagnostics discards all events.
type nopDiagnostics struct{}

func (nopDiagnostics) Event(string, map[string]any) {}

// Diagnostic event kinds.
const (
	DiagRepair       = "integrity_repair"
	DiagSynthetic    = "synthetic_stitch"
	DiagDiscarded    = "intent_discarded"
	DiagPersistError = "persist_error"
)
