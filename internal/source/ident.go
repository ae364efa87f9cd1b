package source

import "golang.org/x/text/unicode/norm"

// Ident is a name together with the span it was written at.
// Equality between identifiers ignores the span.
type Ident struct {
	Name string
	Span Span
}

// NewIdent builds an identifier, normalizing the name to NFC so that
// visually identical names written with different code points compare equal.
func NewIdent(name string, sp Span) Ident {
	return Ident{Name: norm.NFC.String(name), Span: sp}
}

// IdentNoSpan builds a compiler-generated identifier.
func IdentNoSpan(name string) Ident {
	return Ident{Name: norm.NFC.String(name), Span: NoSpan}
}

func (id Ident) String() string {
	return id.Name
}

// Is reports whether the identifier spells name.
func (id Ident) Is(name string) bool {
	return id.Name == name
}

// SameName reports whether two identifiers spell the same name.
func (id Ident) SameName(other Ident) bool {
	return id.Name == other.Name
}
