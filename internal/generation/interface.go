package generation

import (
	"github.com/dave/jennifer/jen"

	"ccidl/internal/resolve"
)

func (generator *Generator) generateInterface(file *jen.File, iface *resolve.Interface) {
	name := iface.Name
	file.Comment("Interface " + name)
	file.Var().Id(name + "IID").Op("=").Add(guidLiteral(generator.rt("Guid"), iface.IID))
	file.Line()

	file.Type().Id(name + "VirtualTable").StructFunc(func(g *jen.Group) {
		for _, m := range iface.Methods {
			g.Id(m.GoName).Add(generator.vtableField(m))
		}
	})
	file.Line()

	file.Type().Id(name+"VirtualTableCcw").Struct(
		jen.Id("Offset").Int(),
		jen.Id("Vtable").Id(name+"VirtualTable"),
	)
	file.Line()

	file.Type().Id(name).Struct(
		jen.Id("vtable").Op("*").Id(name + "VirtualTable"),
	)
	file.Line()

	file.Func().Params(jen.Op("*").Id(name)).Id("IID").Params().Add(generator.rt("Guid")).Block(
		jen.Return(jen.Id(name + "IID")),
	)
	file.Line()

	for _, m := range iface.Methods {
		if m.GoName == resolve.QueryInterfaceName {
			generator.generateQueryInterfaceWrapper(file, iface, m)
		} else {
			generator.generateWrapper(file, iface, m)
		}
		file.Line()
	}

	file.Comment(name + "Impl is implemented by objects exposed as " + name + ".")
	file.Type().Id(name + "Impl").InterfaceFunc(func(g *jen.Group) {
		for _, m := range iface.Own {
			g.Add(generator.safeSignature(m))
		}
	})
	file.Line()
}

// generateWrapper emits the safe method calling through the handle's vtable.
func (generator *Generator) generateWrapper(file *jen.File, iface *resolve.Interface, method *resolve.Method) {
	file.Func().Params(jen.Id("i").Op("*").Id(iface.Name)).Add(generator.safeSignature(method)).BlockFunc(func(g *jen.Group) {
		var args []jen.Code
		var post []jen.Code
		args = append(args, jen.Qual(unsafePath, "Pointer").Call(jen.Id("i")))
		for _, p := range method.Params {
			conv := generator.mapper.ToRaw(p.Type, p.Local)
			for _, c := range conv.Pre {
				g.Add(c)
			}
			args = append(args, conv.Arg)
			post = append(post, conv.Post...)
		}

		if indirect(method) {
			g.Var().Id("ret").Add(generator.mapper.ResultValue(method.Result))
			args = append(args, jen.Op("&").Id("ret"))
		}

		var call *jen.Statement
		if method.Internal {
			call = jen.Id("i").Dot("vtable").Dot(method.GoName).Call(args...)
		} else {
			g.Var().Id("call").Add(generator.rawSignature(method))
			g.Qual(puregoPath, "RegisterFunc").Call(jen.Op("&").Id("call"), jen.Id("i").Dot("vtable").Dot(method.GoName))
			call = jen.Id("call").Call(args...)
		}

		if method.Result.IsVoid() || indirect(method) {
			g.Add(call)
		} else {
			g.Id("ret").Op(":=").Add(call)
		}
		for _, c := range post {
			g.Add(c)
		}
		if !method.Result.IsVoid() {
			g.Return(generator.mapper.ResultFromRaw(method.Result, jen.Id("ret")))
		}
	})
}

// generateQueryInterfaceWrapper emits a package level generic function: the
// target identity comes from the type argument.
func (generator *Generator) generateQueryInterfaceWrapper(file *jen.File, iface *resolve.Interface, method *resolve.Method) {
	comRc := jen.Op("*").Add(generator.rt("ComRc").Types(jen.Id("T")))
	raw := jen.Func().Params(
		jen.Id("this").Qual(unsafePath, "Pointer"),
		jen.Id("guid").Op("*").Add(generator.rt("Guid")),
		jen.Id("retval").Op("*").Qual(unsafePath, "Pointer"),
	).Int32()

	file.Comment(iface.Name + method.GoName + " asks the object behind i for the interface T.")
	file.Func().Id(iface.Name+method.GoName).Types(
		jen.Id("T").Id("any"),
		jen.Id("P").Interface(jen.Op("*").Id("T"), generator.rt("ComInterface")),
	).Params(
		jen.Id("i").Op("*").Id(iface.Name),
	).Params(comRc, jen.Bool()).Block(
		jen.Var().Id("call").Add(raw),
		jen.Qual(puregoPath, "RegisterFunc").Call(jen.Op("&").Id("call"), jen.Id("i").Dot("vtable").Dot(method.GoName)),
		jen.Var().Id("ptr").Qual(unsafePath, "Pointer"),
		jen.Id("guid").Op(":=").Id("P").Call(jen.Nil()).Dot("IID").Call(),
		jen.If(
			jen.Id("call").Call(jen.Qual(unsafePath, "Pointer").Call(jen.Id("i")), jen.Op("&").Id("guid"), jen.Op("&").Id("ptr")).Op("!=").Lit(0),
		).Block(
			jen.Return(jen.Nil(), jen.False()),
		),
		jen.Return(generator.rt("FromRawPointer").Types(jen.Id("T")).Call(jen.Id("ptr")), jen.True()),
	)
}
