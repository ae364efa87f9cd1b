package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeSession covers a whole compilation session.
	ScopeSession Scope = iota + 1
	// ScopeStage covers one program builder stage (check, synthesize, analyze...).
	ScopeStage
	// ScopeModule covers one module or submodule.
	ScopeModule
	// ScopeNode covers a single top-level declaration.
	ScopeNode
)

func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeStage:
		return "stage"
	case ScopeModule:
		return "module"
	case ScopeNode:
		return "node"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // "check", "analyze", "node:transfer"
	Detail   string
	Extra    map[string]string
}
