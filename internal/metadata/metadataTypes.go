// The package used for describing the declarations of an IDL compilation unit.
package metadata

import (
	"ccidl/internal/source"
)

// Decl is a top-level Interface or Class.
type Decl interface {
	DeclName() string
	DeclSpan() source.Span
}

// Ref is a name used as a base, with the place it was written.
type Ref struct {
	Name string
	Span source.Span
}

type Interface struct {
	Name    string
	Bases   []Ref
	Methods []*Method
	Attrs   Attributes
	Span    source.Span
}

func (i *Interface) DeclName() string      { return i.Name }
func (i *Interface) DeclSpan() source.Span { return i.Span }

// CodegenIgnore reports whether the interface is supplied by the runtime and
// must not be emitted.
func (i *Interface) CodegenIgnore() bool { return i.Attrs.CodegenIgnore }

// A Class is never a usable type, it only names the interfaces it implements.
type Class struct {
	Name    string
	Bases   []Ref
	Methods []*Method
	Attrs   Attributes
	Span    source.Span
}

func (c *Class) DeclName() string      { return c.Name }
func (c *Class) DeclSpan() source.Span { return c.Span }

type Method struct {
	Name       string
	ReturnType TypeExpr
	Params     []*Parameter
	Attrs      Attributes
	Span       source.Span
}

// Internal methods never cross the ABI boundary.
func (m *Method) Internal() bool { return m.Attrs.Internal }

type Parameter struct {
	Name  string
	Type  TypeExpr
	Attrs ParamAttributes
	Span  source.Span
}

type TypeForm uint8

const (
	// FormNamed is a primitive keyword or an interface reference.
	FormNamed TypeForm = iota
	FormArray
	FormOptional
)

// TypeExpr is `Name`, `Name[]` or `Name?`.
type TypeExpr struct {
	Name string
	Form TypeForm
	Span source.Span
}

func (t TypeExpr) String() string {
	switch t.Form {
	case FormArray:
		return t.Name + "[]"
	case FormOptional:
		return t.Name + "?"
	}
	return t.Name
}

type Import struct {
	FileName string
	Span     source.Span
}

// Module records `module(lang) name;`.
type Module struct {
	Lang string
	Name string
	Span source.Span
}

// Unit is a parsed compilation unit. Items keeps declaration order.
type Unit struct {
	Items   []Decl
	Imports []Import
	Modules []Module
}

// Find returns the first declaration called name, or nil.
func (u *Unit) Find(name string) Decl {
	for _, item := range u.Items {
		if item.DeclName() == name {
			return item
		}
	}
	return nil
}

func (u *Unit) Interfaces() []*Interface {
	var out []*Interface
	for _, item := range u.Items {
		if i, ok := item.(*Interface); ok {
			out = append(out, i)
		}
	}
	return out
}

func (u *Unit) Classes() []*Class {
	var out []*Class
	for _, item := range u.Items {
		if c, ok := item.(*Class); ok {
			out = append(out, c)
		}
	}
	return out
}
