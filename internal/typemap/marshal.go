package typemap

import (
	"github.com/dave/jennifer/jen"

	"ccidl/internal/metadata"
)

// Conversion is the code needed to pass one argument across the boundary.
// Pre runs before the call, Arg is the argument expression and Post runs
// after the call returns.
type Conversion struct {
	Pre  []jen.Code
	Arg  jen.Code
	Post []jen.Code
}

// ToRaw converts a safe argument for a call through a vtable slot. In-values
// are lent to the callee; [out] handles are adopted after the call. UUIDs
// travel by pointer to a copy.
func (m *Mapper) ToRaw(t Type, name string) Conversion {
	id := jen.Id(name)
	switch t.Kind {
	case KindUUID:
		tmp := name + metadata.RawSuffix
		return Conversion{
			Pre: []jen.Code{jen.Id(tmp).Op(":=").Add(m.rt("Guid").Call(id))},
			Arg: jen.Op("&").Id(tmp),
		}
	case KindInterface:
		if t.Out {
			tmp := name + metadata.RawSuffix
			return Conversion{
				Pre: []jen.Code{jen.Var().Id(tmp).Qual("unsafe", "Pointer")},
				Arg: jen.Op("&").Id(tmp),
				Post: []jen.Code{
					jen.Op("*").Id(name).Op("=").Add(m.rt("FromRawPointer").Types(m.handle(t)).Call(jen.Id(tmp))),
				},
			}
		}
		return Conversion{Arg: id.Dot("Raw").Call()}
	case KindArray:
		return Conversion{Arg: id.Dot("Raw").Call()}
	case KindOptional:
		return Conversion{Arg: m.rt("OptionToRaw").Call(id)}
	}
	return Conversion{Arg: id}
}

// FromRaw converts an argument received by a dispatcher into its safe form.
// In-values are borrowed, so handles take their own reference.
func (m *Mapper) FromRaw(t Type, name string) Conversion {
	id := jen.Id(name)
	switch t.Kind {
	case KindUUID:
		return Conversion{Arg: jen.Qual("github.com/google/uuid", "UUID").Call(jen.Op("*").Add(id))}
	case KindInterface:
		if t.Out {
			tmp := name + metadata.SafeSuffix
			return Conversion{
				Pre: []jen.Code{jen.Var().Id(tmp).Add(m.comRc(t))},
				Arg: jen.Op("&").Id(tmp),
				Post: []jen.Code{
					jen.If(jen.Id(tmp).Op("!=").Nil()).Block(
						jen.Op("*").Id(name).Op("=").Id(tmp).Dot("IntoRaw").Call(),
					),
				},
			}
		}
		return Conversion{Arg: m.rt("FromBorrowedPointer").Types(m.handle(t)).Call(id)}
	case KindArray:
		return Conversion{Arg: m.rt("ObjectArrayFromBorrowedPointer").Types(m.handle(t)).Call(id)}
	case KindOptional:
		return Conversion{Arg: m.rt("OptionFromBorrowedPointer").Types(m.handle(t)).Call(id)}
	}
	return Conversion{Arg: id}
}

// ResultFromRaw adopts a raw result returned through a vtable slot.
func (m *Mapper) ResultFromRaw(t Type, value jen.Code) jen.Code {
	switch t.Kind {
	case KindUUID:
		return jen.Qual("github.com/google/uuid", "UUID").Call(value)
	case KindInterface:
		return m.rt("FromRawPointer").Types(m.handle(t)).Call(value)
	case KindArray:
		return m.rt("ObjectArrayFromRawPointer").Types(m.handle(t)).Call(value)
	case KindOptional:
		return m.rt("OptionFromRawPointer").Types(m.handle(t)).Call(value)
	}
	return value
}

// ResultToRaw hands a safe result out of a dispatcher, transferring ownership.
func (m *Mapper) ResultToRaw(t Type, value jen.Code) jen.Code {
	switch t.Kind {
	case KindUUID:
		return m.rt("Guid").Call(value)
	case KindInterface, KindArray:
		return jen.Add(value).Dot("IntoRaw").Call()
	case KindOptional:
		return m.rt("OptionIntoRaw").Call(value)
	}
	return value
}
