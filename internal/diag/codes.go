package diag

import "fmt"

// Code classifies a compilation failure. A Code is itself an error so callers
// can match with errors.Is(err, diag.MultipleInheritance).
type Code uint16

const (
	UnknownCode Code = 0

	// Grammar
	SyntaxError           Code = 1000
	SynDuplicateAttribute Code = 1001
	SynInvalidAttribute   Code = 1002

	// Resolution
	UnresolvedSymbol    Code = 2000
	InvalidTypeUse      Code = 2001
	MultipleInheritance Code = 2002
	DuplicateSymbol     Code = 2003
	CircularInheritance Code = 2004
	MissingUUID         Code = 2005
	DuplicateMethod     Code = 2006
	UnimplementedMethod Code = 2007
)

var codeNames = map[Code]string{
	UnknownCode:           "UnknownError",
	SyntaxError:           "SyntaxError",
	SynDuplicateAttribute: "DuplicateAttribute",
	SynInvalidAttribute:   "InvalidAttribute",
	UnresolvedSymbol:      "UnresolvedSymbol",
	InvalidTypeUse:        "InvalidTypeUse",
	MultipleInheritance:   "MultipleInheritance",
	DuplicateSymbol:       "DuplicateSymbol",
	CircularInheritance:   "CircularInheritance",
	MissingUUID:           "MissingUUID",
	DuplicateMethod:       "DuplicateMethod",
	UnimplementedMethod:   "UnimplementedMethod",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// ID is the short form printed in rendered diagnostics, e.g. E2002.
func (c Code) ID() string {
	return fmt.Sprintf("E%04d", uint16(c))
}

func (c Code) Error() string {
	return c.String()
}

// IsSyntax reports whether c belongs to the grammar family. Attribute errors
// are syntax errors detected while reading attribute lists.
func (c Code) IsSyntax() bool {
	return c >= 1000 && c < 2000
}
