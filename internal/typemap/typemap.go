// Package typemap maps IDL type expressions to their raw (ABI) and safe (host)
// Go representations and builds the conversions between the two.
package typemap

import (
	"github.com/dave/jennifer/jen"

	"ccidl/internal/diag"
	"ccidl/internal/metadata"
)

type Kind uint8

const (
	KindVoid Kind = iota
	KindPrimitive
	KindUUID
	KindBytePtr
	KindInterface
	KindArray
	KindOptional
	// KindVerbatim is the declared text of an internal method, never marshalled.
	KindVerbatim
)

var kindNames = map[Kind]string{
	KindVoid:      "void",
	KindPrimitive: "primitive",
	KindUUID:      "uuid",
	KindBytePtr:   "byte pointer",
	KindInterface: "interface",
	KindArray:     "array",
	KindOptional:  "optional",
	KindVerbatim:  "verbatim",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Type is a resolved type expression. Name is the Go primitive for
// KindPrimitive, the interface name for the interface kinds and the Go text
// for KindVerbatim.
type Type struct {
	Kind Kind
	Name string
	Out  bool
	// Runtime marks interfaces supplied by the runtime package.
	Runtime bool
}

func (t Type) IsVoid() bool {
	return t.Kind == KindVoid
}

var builtInTypes = map[string]string{
	"int":       "int32",
	"long":      "int32",
	"longlong":  "int64",
	"short":     "int16",
	"uint":      "uint32",
	"ulong":     "uint32",
	"ulonglong": "uint64",
	"float":     "float32",
	"double":    "float64",
	"byte":      "uint8",
	"bool":      "bool",
}

// IsBuiltIn reports whether name is one of the IDL keyword types.
func IsBuiltIn(name string) bool {
	_, ok := builtInTypes[name]
	return ok || name == "void" || name == "UUID" || name == "byte*"
}

// Lookup finds a top-level declaration by name, nil when absent.
type Lookup func(name string) metadata.Decl

type Mapper struct {
	// Runtime is the import path of the runtime support package.
	Runtime string
	// Package is the import path of the generated package.
	Package string
}

func NewMapper(runtimePath, packagePath string) *Mapper {
	return &Mapper{Runtime: runtimePath, Package: packagePath}
}

// Return resolves a method's return type.
func (m *Mapper) Return(method *metadata.Method, lookup Lookup) (Type, error) {
	if method.Internal() {
		return verbatim(method.ReturnType), nil
	}
	return m.resolve(method.ReturnType, false, lookup)
}

// Param resolves a parameter type of method.
func (m *Mapper) Param(method *metadata.Method, param *metadata.Parameter, lookup Lookup) (Type, error) {
	if method.Internal() {
		return verbatim(param.Type), nil
	}
	t, err := m.resolve(param.Type, param.Attrs.Out, lookup)
	if err != nil {
		return Type{}, err
	}
	if t.IsVoid() {
		return Type{}, diag.Errorf(diag.InvalidTypeUse, param.Type.Span, "parameter %q cannot be void", param.Name)
	}
	return t, nil
}

func verbatim(expr metadata.TypeExpr) Type {
	if expr.Form == metadata.FormNamed && expr.Name == "void" {
		return Type{Kind: KindVoid}
	}
	text := expr.Name
	switch expr.Form {
	case metadata.FormArray:
		text = "[]" + text
	case metadata.FormOptional:
		text = "*" + text
	}
	return Type{Kind: KindVerbatim, Name: text}
}

func (m *Mapper) resolve(expr metadata.TypeExpr, out bool, lookup Lookup) (Type, error) {
	if expr.Form != metadata.FormNamed {
		if IsBuiltIn(expr.Name) {
			return Type{}, diag.Errorf(diag.InvalidTypeUse, expr.Span, "%s: element type must be an interface", expr)
		}
		iface, err := m.lookupInterface(expr, lookup)
		if err != nil {
			return Type{}, err
		}
		if out {
			return Type{}, diag.Errorf(diag.InvalidTypeUse, expr.Span, "[out] is only allowed on a bare interface, not %s", expr)
		}
		kind := KindArray
		if expr.Form == metadata.FormOptional {
			kind = KindOptional
		}
		return Type{Kind: kind, Name: iface.Name, Runtime: iface.CodegenIgnore()}, nil
	}

	var t Type
	switch name := expr.Name; {
	case name == "void":
		t = Type{Kind: KindVoid}
	case name == "UUID":
		t = Type{Kind: KindUUID, Name: name}
	case name == "byte*":
		t = Type{Kind: KindBytePtr, Name: name}
	case builtInTypes[name] != "":
		t = Type{Kind: KindPrimitive, Name: builtInTypes[name]}
	default:
		iface, err := m.lookupInterface(expr, lookup)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindInterface, Name: iface.Name, Out: out, Runtime: iface.CodegenIgnore()}, nil
	}
	if out {
		return Type{}, diag.Errorf(diag.InvalidTypeUse, expr.Span, "[out] is only allowed on a bare interface, not %s", expr)
	}
	return t, nil
}

func (m *Mapper) lookupInterface(expr metadata.TypeExpr, lookup Lookup) (*metadata.Interface, error) {
	switch decl := lookup(expr.Name).(type) {
	case *metadata.Interface:
		return decl, nil
	case *metadata.Class:
		return nil, diag.Errorf(diag.InvalidTypeUse, expr.Span, "class %s cannot be used as a type", expr.Name)
	default:
		return nil, diag.Errorf(diag.UnresolvedSymbol, expr.Span, "unknown type %s", expr.Name)
	}
}

// Interface returns the qualified handle type of an interface.
func (m *Mapper) Interface(name string, runtime bool) *jen.Statement {
	if runtime {
		return jen.Qual(m.Runtime, name)
	}
	return jen.Qual(m.Package, name)
}

func (m *Mapper) rt(name string) *jen.Statement {
	return jen.Qual(m.Runtime, name)
}

func (m *Mapper) handle(t Type) *jen.Statement {
	return m.Interface(t.Name, t.Runtime)
}

// comRc is *rt.ComRc[X].
func (m *Mapper) comRc(t Type) *jen.Statement {
	return jen.Op("*").Add(m.rt("ComRc").Types(m.handle(t)))
}

// Raw is the ABI representation. Nil for void.
func (m *Mapper) Raw(t Type) jen.Code {
	switch t.Kind {
	case KindPrimitive:
		return jen.Id(t.Name)
	case KindUUID:
		return jen.Op("*").Add(m.rt("Guid"))
	case KindBytePtr:
		return jen.Op("*").Byte()
	case KindInterface:
		if t.Out {
			return jen.Op("*").Qual("unsafe", "Pointer")
		}
		return jen.Qual("unsafe", "Pointer")
	case KindArray:
		return jen.Qual("unsafe", "Pointer")
	case KindOptional:
		return m.rt("RawPointer")
	case KindVerbatim:
		return jen.Id(t.Name)
	}
	return nil
}

// IndirectResult reports whether a result crosses the boundary through a
// hidden trailing pointer instead of the return value. Callbacks can only
// return integers and pointers.
func IndirectResult(t Type) bool {
	switch t.Kind {
	case KindUUID:
		return true
	case KindPrimitive:
		return t.Name == "float32" || t.Name == "float64"
	}
	return false
}

// ResultValue is the raw type written through the pointer of an indirect
// result.
func (m *Mapper) ResultValue(t Type) jen.Code {
	if t.Kind == KindUUID {
		return m.rt("Guid")
	}
	return jen.Id(t.Name)
}

// Safe is the host representation. Nil for void.
func (m *Mapper) Safe(t Type) jen.Code {
	switch t.Kind {
	case KindUUID:
		return jen.Qual("github.com/google/uuid", "UUID")
	case KindInterface:
		if t.Out {
			return jen.Op("*").Add(m.comRc(t))
		}
		return m.comRc(t)
	case KindArray:
		return jen.Op("*").Add(m.rt("ObjectArray").Types(m.handle(t)))
	case KindOptional:
		return m.rt("Option").Types(m.comRc(t))
	}
	return m.Raw(t)
}
