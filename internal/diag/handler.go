package diag

import (
	"errors"
	"sync"

	"ledgerc/internal/source"
)

// ErrEmitted is the proof that a diagnostic was recorded. It carries no
// message of its own; the diagnostic lives in the Handler.
var ErrEmitted = errors.New("diagnostic emitted")

// Handler collects diagnostics for one compilation and is safe for
// concurrent use.
type Handler struct {
	mu  sync.Mutex
	bag *Bag
}

func NewHandler(max int) *Handler {
	return &Handler{bag: NewBag(max)}
}

// Report implements Reporter.
func (h *Handler) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	d := New(sev, code, primary, msg)
	if len(notes) > 0 {
		d.Notes = append([]Note(nil), notes...)
	}
	h.add(d)
}

func (h *Handler) add(d Diagnostic) {
	h.mu.Lock()
	h.bag.Add(d)
	h.mu.Unlock()
}

// EmitErr records d as an error and returns ErrEmitted.
func (h *Handler) EmitErr(d Diagnostic) error {
	d.Severity = SevError
	h.add(d)
	return ErrEmitted
}

// EmitWarn records d as a warning.
func (h *Handler) EmitWarn(d Diagnostic) {
	d.Severity = SevWarning
	h.add(d)
}

func (h *Handler) HasErrors() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bag.HasErrors()
}

func (h *Handler) HasWarnings() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bag.HasWarnings()
}

// Diagnostics returns a copy of everything recorded so far in insertion order.
func (h *Handler) Diagnostics() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Diagnostic(nil), h.bag.Items()...)
}

// Errors returns only error-severity diagnostics.
func (h *Handler) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range h.Diagnostics() {
		if d.Severity.AtLeast(SevError) {
			out = append(out, d)
		}
	}
	return out
}

// Bag returns a sorted, deduplicated snapshot suitable for printing.
func (h *Handler) Bag() *Bag {
	h.mu.Lock()
	b := NewBag(int(h.bag.Cap()))
	b.Merge(h.bag)
	h.mu.Unlock()
	b.Dedup()
	b.Sort()
	return b
}

// Append merges the findings of other into h.
func (h *Handler) Append(other *Handler) {
	if other == nil || other == h {
		return
	}
	items := other.Diagnostics()
	h.mu.Lock()
	for _, d := range items {
		h.bag.Add(d)
	}
	h.mu.Unlock()
}

// Fork returns an empty handler with the same cap. Used for per-node work
// that is merged back later in a deterministic order.
func (h *Handler) Fork() *Handler {
	return NewHandler(int(h.bag.Cap()))
}

// Scope runs fn against a fresh child handler and merges the child's
// diagnostics back. If fn returned nil but the child saw an error, Scope
// returns ErrEmitted.
func (h *Handler) Scope(fn func(*Handler) error) error {
	child := h.Fork()
	err := fn(child)
	h.Append(child)
	if err != nil {
		return err
	}
	if child.HasErrors() {
		return ErrEmitted
	}
	return nil
}
