package generation

import (
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"

	"ccidl/internal"
	"ccidl/internal/metadata"
	"ccidl/internal/resolve"
	"ccidl/internal/typemap"
)

const (
	puregoPath = "github.com/ebitengine/purego"
	unsafePath = "unsafe"
)

type Generator struct {
	Interfaces  []*resolve.Interface
	Classes     []*resolve.Class
	PackageName string
	PackagePath string
	SourceName  string
	mapper      *typemap.Mapper
	unit        *resolve.Unit
}

func NewGenerator(packageName string, packagePath string, mapper *typemap.Mapper) Generator {
	return Generator{
		make([]*resolve.Interface, 0),
		make([]*resolve.Class, 0),
		packageName,
		packagePath,
		"",
		mapper,
		nil,
	}
}

// RegisterUnit queues everything the unit declares. Runtime interfaces stay
// reachable for class layouts but are never emitted.
func (generator *Generator) RegisterUnit(unit *resolve.Unit) {
	generator.unit = unit
	for _, iface := range unit.Generated() {
		generator.RegisterInterface(iface)
	}
	for _, class := range unit.Classes {
		generator.RegisterClass(class)
	}
}

func (generator *Generator) RegisterInterface(element *resolve.Interface) {
	generator.Interfaces = append(generator.Interfaces, element)
}

func (generator *Generator) RegisterClass(element *resolve.Class) {
	generator.Classes = append(generator.Classes, element)
}

// Generate builds the whole output file in memory.
func (generator *Generator) Generate() *jen.File {
	file := jen.NewFilePathName(generator.PackagePath, generator.PackageName)
	if generator.SourceName != "" {
		file.HeaderComment(fmt.Sprintf("Code generated by ccidl from %s. DO NOT EDIT.", generator.SourceName))
	} else {
		file.HeaderComment("Code generated by ccidl. DO NOT EDIT.")
	}
	file.ImportName(puregoPath, "purego")
	file.ImportName("github.com/google/uuid", "uuid")

	for _, iface := range generator.Interfaces {
		generator.generateInterface(file, iface)
	}
	for _, class := range generator.Classes {
		generator.generateClass(file, class)
	}
	return file
}

// Render writes the generated file to w.
func (generator *Generator) Render(w io.Writer) error {
	if err := generator.Generate().Render(w); err != nil {
		return fmt.Errorf("rendering generated code: %w", err)
	}
	return nil
}

func (generator *Generator) rt(name string) *jen.Statement {
	return jen.Qual(generator.mapper.Runtime, name)
}

// lookup returns a resolved interface, runtime ones included.
func (generator *Generator) lookup(name string) *resolve.Interface {
	iface := generator.unit.Interface(name)
	if iface == nil {
		internal.PanicOnError(fmt.Errorf("interface %s was not resolved", name))
	}
	return iface
}

func guidLiteral(rt *jen.Statement, id uuid.UUID) *jen.Statement {
	return rt.ValuesFunc(func(g *jen.Group) {
		for _, b := range id {
			g.Op(fmt.Sprintf("0x%02x", b))
		}
	})
}

// indirect reports whether the result of method is written through a hidden
// trailing retval pointer.
func indirect(method *resolve.Method) bool {
	return !method.Internal && typemap.IndirectResult(method.Result)
}

func (generator *Generator) rawParams(g *jen.Group, method *resolve.Method) {
	g.Id("this").Qual(unsafePath, "Pointer")
	for _, p := range method.Params {
		g.Id(p.Local).Add(generator.mapper.Raw(p.Type))
	}
	if indirect(method) {
		g.Id("retval").Op("*").Add(generator.mapper.ResultValue(method.Result))
	}
}

// rawResult is nil for void methods and indirect results.
func (generator *Generator) rawResult(method *resolve.Method) jen.Code {
	if method.Result.IsVoid() || indirect(method) {
		return nil
	}
	return generator.mapper.Raw(method.Result)
}

// rawSignature is the ABI function type of a vtable slot.
func (generator *Generator) rawSignature(method *resolve.Method) *jen.Statement {
	return jen.Func().ParamsFunc(func(g *jen.Group) {
		generator.rawParams(g, method)
	}).Add(generator.rawResult(method))
}

// safeSignature is name(params) result with host types.
func (generator *Generator) safeSignature(method *resolve.Method) *jen.Statement {
	sig := jen.Id(method.GoName).ParamsFunc(func(g *jen.Group) {
		for _, p := range method.Params {
			g.Id(p.Local).Add(generator.mapper.Safe(p.Type))
		}
	})
	if !method.Result.IsVoid() {
		sig.Add(generator.mapper.Safe(method.Result))
	}
	return sig
}

// vtableField is the field type of a slot: a C function pointer for system
// slots, a Go func for internal ones.
func (generator *Generator) vtableField(method *resolve.Method) jen.Code {
	if method.Internal {
		return generator.rawSignature(method)
	}
	return jen.Uintptr()
}

func dispatchName(class *resolve.Class) string {
	return metadata.UnexportedName(class.Name) + "Dispatch"
}

func ccwName(class *resolve.Class) string {
	return class.Name + "Ccw"
}

func globalVtableName(iface string, class *resolve.Class) string {
	return fmt.Sprintf("global%sVirtualTableCcwFor%s", iface, class.Name)
}
