package diag

import (
	"errors"
	"sync"
	"testing"

	"ledgerc/internal/source"
)

func TestEmitErrReturnsSentinel(t *testing.T) {
	h := NewHandler(0)
	err := h.EmitErr(NewError(SemaFieldNotFound, source.NoSpan, "no field `x`"))
	if !errors.Is(err, ErrEmitted) {
		t.Fatalf("expected ErrEmitted, got %v", err)
	}
	if !h.HasErrors() {
		t.Fatalf("handler should have errors")
	}
	if h.HasWarnings() {
		t.Fatalf("unexpected warnings")
	}
}

func TestScopeMergesChildAndReportsFailure(t *testing.T) {
	h := NewHandler(0)
	h.EmitWarn(NewWarning(SemaInfo, source.NoSpan, "outer"))

	err := h.Scope(func(c *Handler) error {
		c.Report(SemaTypeMismatch, SevError, source.NoSpan, "inner", nil)
		return nil
	})
	if !errors.Is(err, ErrEmitted) {
		t.Fatalf("scope with child error must return ErrEmitted, got %v", err)
	}
	diags := h.Diagnostics()
	if len(diags) != 2 || diags[1].Message != "inner" {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}

	if err := h.Scope(func(*Handler) error { return nil }); err != nil {
		t.Fatalf("clean scope returned %v", err)
	}
}

func TestScopePassesThroughError(t *testing.T) {
	h := NewHandler(0)
	boom := errors.New("boom")
	if err := h.Scope(func(*Handler) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestHandlerConcurrentReports(t *testing.T) {
	h := NewHandler(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.EmitWarn(NewWarning(SemaInfo, source.NoSpan, "w"))
		}()
	}
	wg.Wait()
	if got := len(h.Diagnostics()); got != 16 {
		t.Fatalf("expected 16 diagnostics, got %d", got)
	}
}

func TestCodeRanges(t *testing.T) {
	tests := []struct {
		code     Code
		id       string
		internal bool
	}{
		{SemaFieldNotFound, "SEM3002", false},
		{ProjDependencyCycle, "PRJ5001", false},
		{StorageLayoutFailure, "STO6001", false},
		{AbiUnsupportedParamType, "ABI7001", false},
		{AbiInternalSynthesisFailure, "ICE9001", true},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.id {
			t.Errorf("%d: ID() = %q, want %q", tt.code, got, tt.id)
		}
		if got := tt.code.IsInternal(); got != tt.internal {
			t.Errorf("%s: IsInternal() = %v", tt.id, got)
		}
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(SemaUnknownType, source.Span{File: 2, Start: 1, End: 2}, "a"))
	b.Add(NewError(SemaUnknownType, source.Span{File: 1, Start: 5, End: 6}, "b"))
	b.Add(NewError(SemaUnknownType, source.Span{File: 1, Start: 5, End: 6}, "b"))
	b.Dedup()
	b.Sort()
	if b.Len() != 2 {
		t.Fatalf("dedup failed: %d", b.Len())
	}
	if b.Items()[0].Message != "b" {
		t.Fatalf("sort failed: %+v", b.Items())
	}
}
