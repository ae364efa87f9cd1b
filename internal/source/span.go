package source

import (
	"fmt"
)

// Span is a half-open byte range inside a single file.
type Span struct {
	File  FileID
	Start uint32 // inclusive
	End   uint32 // exclusive
}

// NoSpan is the sentinel "no location" span. Compiler-generated nodes carry
// it so diagnostics and source maps can tell them apart from user code.
var NoSpan = Span{File: NoFileID}

// IsSynthetic reports whether the span is the NoSpan sentinel.
func (s Span) IsSynthetic() bool {
	return s.File == NoFileID
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	if s.IsSynthetic() {
		return "<synthesized>"
	}
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover extends s so it also covers other. Spans from different files, and
// synthetic spans, are left untouched.
func (s Span) Cover(other Span) Span {
	if s.IsSynthetic() {
		return other
	}
	if other.IsSynthetic() || s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(off uint32) bool {
	return off >= s.Start && off < s.End
}
