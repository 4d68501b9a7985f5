package generation

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"ccidl/internal/metadata"
	"ccidl/internal/resolve"
)

func (generator *Generator) generateClass(file *jen.File, class *resolve.Class) {
	file.Comment("Class " + class.Name)
	if class.HasCLSID {
		file.Var().Id(class.Name + "CLSID").Op("=").Add(guidLiteral(generator.rt("Guid"), class.CLSID))
		file.Line()
	}

	generator.generateImpl(file, class)
	generator.generateLayout(file, class)
	generator.generateLifecycle(file, class)
	generator.generateDispatchers(file, class)
	generator.generateVtables(file, class)
	generator.generateConstructor(file, class)
}

func implName(class *resolve.Class) string {
	return class.Name + "Impl"
}

func hostName(class *resolve.Class) string {
	return class.Name + "Host"
}

// innerType is what the object wraps: the implementation itself or a host
// holding it in a named field.
func innerType(class *resolve.Class) string {
	if class.InnerField != "" {
		return hostName(class)
	}
	return implName(class)
}

func (generator *Generator) generateImpl(file *jen.File, class *resolve.Class) {
	file.Comment(implName(class) + " is everything an object must implement to be exposed as " + class.Name + ".")
	file.Type().Id(implName(class)).InterfaceFunc(func(g *jen.Group) {
		for _, name := range class.Ancestors {
			g.Id(name + "Impl")
		}
		for _, m := range class.Direct {
			g.Add(generator.safeSignature(m))
		}
	})
	file.Line()

	if class.InnerField != "" {
		file.Type().Id(hostName(class)).Interface(
			jen.Id(metadata.ExportedName(class.InnerField)).Params().Id(implName(class)),
		)
		file.Line()
	}
}

// generateLayout emits the object: one vtable pointer per base, in base
// order, followed by the bookkeeping fields.
func (generator *Generator) generateLayout(file *jen.File, class *resolve.Class) {
	ccw := ccwName(class)
	file.Type().Id(ccw).StructFunc(func(g *jen.Group) {
		for _, slot := range class.Slots {
			base := generator.lookup(slot.Interface)
			g.Id(base.Name).Op("*").Add(generator.mapper.Interface(base.Name+"VirtualTable", base.Runtime))
		}
		g.Id("refCount").Qual("sync/atomic", "Uint32")
		g.Id("pinner").Qual("runtime", "Pinner")
		g.Id("inner").Id(innerType(class))
	})
	file.Line()

	slots := len(class.Slots)
	file.Comment("slot returns the address of the vtable pointer at offset, counted in pointers.")
	file.Func().Params(jen.Id("o").Op("*").Id(ccw)).Id("slot").Params(jen.Id("offset").Int()).Qual(unsafePath, "Pointer").Block(
		jen.If(jen.Id("offset").Op("<").Lit(0).Op("||").Id("offset").Op(">=").Lit(slots)).Block(
			jen.Panic(jen.Qual("fmt", "Sprintf").Call(jen.Lit(ccw+": slot %d out of range"), jen.Id("offset"))),
		),
		jen.Return(jen.Qual(unsafePath, "Add").Call(
			jen.Qual(unsafePath, "Pointer").Call(jen.Id("o")),
			jen.Id("offset").Op("*").Int().Call(jen.Qual(unsafePath, "Sizeof").Call(jen.Uintptr().Call(jen.Lit(0)))),
		)),
	)
	file.Line()
}

func (generator *Generator) generateLifecycle(file *jen.File, class *resolve.Class) {
	ccw := ccwName(class)
	file.Func().Params(jen.Id("o").Op("*").Id(ccw)).Id(resolve.AddRefName).Params().Uint32().Block(
		jen.Return(jen.Id("o").Dot("refCount").Dot("Add").Call(jen.Lit(1))),
	)
	file.Line()

	file.Comment("Release drops one reference. The object is released on the calling goroutine")
	file.Comment("when the count reaches zero; the decremented count is returned either way.")
	file.Func().Params(jen.Id("o").Op("*").Id(ccw)).Id(resolve.ReleaseName).Params().Uint32().Block(
		jen.Id("count").Op(":=").Id("o").Dot("refCount").Dot("Add").Call(jen.Op("^").Uint32().Call(jen.Lit(0))),
		jen.If(jen.Id("count").Op("==").Lit(0)).Block(
			jen.Id("o").Dot("inner").Op("=").Nil(),
			jen.Id("o").Dot("pinner").Dot("Unpin").Call(),
		),
		jen.Return(jen.Id("count")),
	)
	file.Line()
}

// getObject recovers the object from a this pointer handed to a dispatcher.
func (generator *Generator) getObject(class *resolve.Class) *jen.Statement {
	return jen.Id("object").Op(":=").Add(generator.rt("GetObject").Types(jen.Id(ccwName(class))).Call(jen.Id("this")))
}

func (generator *Generator) generateDispatchers(file *jen.File, class *resolve.Class) {
	dispatch := dispatchName(class)
	file.Type().Id(dispatch).Struct()
	file.Line()

	this := jen.Id("this").Qual(unsafePath, "Pointer")
	file.Func().Params(jen.Id(dispatch)).Id(resolve.QueryInterfaceName).Params(
		this.Clone(),
		jen.Id("guid").Op("*").Add(generator.rt("Guid")),
		jen.Id("retval").Op("*").Qual(unsafePath, "Pointer"),
	).Int32().BlockFunc(func(g *jen.Group) {
		if len(class.Identities) > 0 {
			g.Add(generator.getObject(class))
			g.Switch(jen.Op("*").Id("guid")).BlockFunc(func(g *jen.Group) {
				for _, id := range class.Identities {
					g.Case(generator.mapper.Interface(id.Interface+"IID", id.Runtime)).Block(
						jen.Op("*").Id("retval").Op("=").Id("object").Dot("slot").Call(jen.Lit(int(id.Offset))),
						jen.Id("object").Dot(resolve.AddRefName).Call(),
						jen.Return(jen.Int32().Call(generator.rt("ResultCodeOk"))),
					)
				}
			})
		}
		g.Return(jen.Int32().Call(generator.rt("ResultCodeENoInterface")))
	})
	file.Line()

	for _, name := range []string{resolve.AddRefName, resolve.ReleaseName} {
		file.Func().Params(jen.Id(dispatch)).Id(name).Params(this.Clone()).Int32().Block(
			jen.Return(jen.Int32().Call(
				generator.rt("GetObject").Types(jen.Id(ccwName(class))).Call(jen.Id("this")).Dot(name).Call(),
			)),
		)
		file.Line()
	}

	for _, m := range class.Dispatch {
		generator.generateDispatcher(file, class, m)
		file.Line()
	}
}

// generateDispatcher emits the ABI entry point forwarding one method to the
// wrapped implementation.
func (generator *Generator) generateDispatcher(file *jen.File, class *resolve.Class, method *resolve.Method) {
	file.Func().Params(jen.Id(dispatchName(class))).Id(method.GoName).ParamsFunc(func(g *jen.Group) {
		generator.rawParams(g, method)
	}).Add(generator.rawResult(method)).BlockFunc(func(g *jen.Group) {
		g.Add(generator.getObject(class))

		var args []jen.Code
		var post []jen.Code
		for _, p := range method.Params {
			conv := generator.mapper.FromRaw(p.Type, p.Local)
			for _, c := range conv.Pre {
				g.Add(c)
			}
			args = append(args, conv.Arg)
			post = append(post, conv.Post...)
		}

		target := jen.Id("object").Dot("inner")
		if class.InnerField != "" {
			target = target.Dot(metadata.ExportedName(class.InnerField)).Call()
		}
		call := target.Dot(method.GoName).Call(args...)

		if method.Result.IsVoid() {
			g.Add(call)
			for _, c := range post {
				g.Add(c)
			}
			return
		}
		g.Id("ret").Op(":=").Add(call)
		for _, c := range post {
			g.Add(c)
		}
		result := generator.mapper.ResultToRaw(method.Result, jen.Id("ret"))
		if indirect(method) {
			g.Op("*").Id("retval").Op("=").Add(result)
			return
		}
		g.Return(result)
	})
}

// slotEntry is the vtable entry wiring one method to the class dispatcher.
func (generator *Generator) slotEntry(class *resolve.Class, method *resolve.Method) jen.Code {
	value := jen.Id(dispatchName(class)).Values().Dot(method.GoName)
	if method.Internal {
		return value
	}
	return jen.Qual(puregoPath, "NewCallback").Call(value)
}

// generateVtables emits one static vtable per base. Its offset is the negated
// slot index, so this plus offset pointers is the start of the object.
func (generator *Generator) generateVtables(file *jen.File, class *resolve.Class) {
	for _, slot := range class.Slots {
		base := generator.lookup(slot.Interface)
		file.Var().Id(globalVtableName(base.Name, class)).Op("=").Add(
			generator.mapper.Interface(base.Name+"VirtualTableCcw", base.Runtime),
		).Values(jen.Dict{
			jen.Id("Offset"): jen.Lit(-int(slot.Offset)),
			jen.Id("Vtable"): generator.mapper.Interface(base.Name+"VirtualTable", base.Runtime).Values(jen.DictFunc(func(d jen.Dict) {
				for _, m := range base.Methods {
					d[jen.Id(m.GoName)] = generator.slotEntry(class, m)
				}
			})),
		})
		file.Line()
	}
}

func (generator *Generator) generateConstructor(file *jen.File, class *resolve.Class) {
	ccw := ccwName(class)
	file.Comment(fmt.Sprintf("New%s wraps inner with a reference count of zero. The object stays pinned", ccw))
	file.Comment("until its last Release.")
	file.Func().Id("New"+ccw).Params(jen.Id("inner").Id(innerType(class))).Op("*").Id(ccw).Block(
		jen.Id("object").Op(":=").Op("&").Id(ccw).Values(jen.DictFunc(func(d jen.Dict) {
			for _, slot := range class.Slots {
				d[jen.Id(slot.Interface)] = jen.Op("&").Id(globalVtableName(slot.Interface, class)).Dot("Vtable")
			}
			d[jen.Id("inner")] = jen.Id("inner")
		})),
		jen.Id("object").Dot("pinner").Dot("Pin").Call(jen.Id("object")),
		jen.Return(jen.Id("object")),
	)
	file.Line()
}
