package resolve

import (
	"go/types"
	"path"
	"slices"

	"fortio.org/safecast"

	"ccidl/internal/diag"
	"ccidl/internal/metadata"
	"ccidl/internal/typemap"
)

type state uint8

const (
	notStarted state = iota
	analyzing
	completed
)

type Resolver struct {
	mapper   *typemap.Mapper
	symbols  map[string]metadata.Decl
	ifaces   map[string]*Interface
	states   map[string]state
	reserved map[string]bool
}

func NewResolver(mapper *typemap.Mapper) *Resolver {
	reserved := map[string]bool{
		"this": true, "object": true, "ret": true, "retval": true, "call": true, "i": true,
		"unsafe": true, "purego": true, "uuid": true,
	}
	reserved[path.Base(mapper.Runtime)] = true
	// Parameters share a scope with the Go types spelled in signatures.
	for _, name := range types.Universe.Names() {
		reserved[name] = true
	}
	return &Resolver{
		mapper:   mapper,
		symbols:  make(map[string]metadata.Decl),
		ifaces:   make(map[string]*Interface),
		states:   make(map[string]state),
		reserved: reserved,
	}
}

// Resolve validates unit and builds its resolved form. The first error aborts
// resolution.
func Resolve(unit *metadata.Unit, mapper *typemap.Mapper) (*Unit, error) {
	return NewResolver(mapper).Resolve(unit)
}

func (r *Resolver) Resolve(unit *metadata.Unit) (*Unit, error) {
	if err := r.collectSymbols(unit); err != nil {
		return nil, err
	}

	out := &Unit{Imports: unit.Imports, Modules: unit.Modules}
	for _, item := range unit.Items {
		switch decl := item.(type) {
		case *metadata.Interface:
			iface, err := r.resolveInterface(decl)
			if err != nil {
				return nil, err
			}
			out.Interfaces = append(out.Interfaces, iface)
		case *metadata.Class:
			class, err := r.resolveClass(decl)
			if err != nil {
				return nil, err
			}
			out.Classes = append(out.Classes, class)
		}
	}
	out.index()
	return out, nil
}

func (r *Resolver) collectSymbols(unit *metadata.Unit) error {
	for _, item := range unit.Items {
		name := item.DeclName()
		if prev, ok := r.symbols[name]; ok {
			return diag.Errorf(diag.DuplicateSymbol, item.DeclSpan(), "%s is already declared at offset %d", name, prev.DeclSpan().Start)
		}
		r.symbols[name] = item
	}
	return nil
}

func (r *Resolver) lookup(name string) metadata.Decl {
	return r.symbols[name]
}

func (r *Resolver) lookupBase(ref metadata.Ref) (*metadata.Interface, error) {
	switch decl := r.symbols[ref.Name].(type) {
	case *metadata.Interface:
		return decl, nil
	case *metadata.Class:
		return nil, diag.Errorf(diag.InvalidTypeUse, ref.Span, "class %s cannot be used as a base", ref.Name)
	default:
		return nil, diag.Errorf(diag.UnresolvedSymbol, ref.Span, "unknown base %s", ref.Name)
	}
}

func (r *Resolver) resolveInterface(decl *metadata.Interface) (*Interface, error) {
	switch r.states[decl.Name] {
	case completed:
		return r.ifaces[decl.Name], nil
	case analyzing:
		return nil, diag.Errorf(diag.CircularInheritance, decl.Span, "interface %s inherits from itself", decl.Name)
	}
	r.states[decl.Name] = analyzing

	if len(decl.Bases) > 1 {
		return nil, diag.Errorf(diag.MultipleInheritance, decl.Bases[1].Span, "interface %s declares %d bases", decl.Name, len(decl.Bases))
	}
	if !decl.CodegenIgnore() && !decl.Attrs.UUID.Valid {
		return nil, diag.Errorf(diag.MissingUUID, decl.Span, "interface %s has no uuid attribute", decl.Name)
	}

	iface := &Interface{
		Name:    decl.Name,
		IID:     decl.Attrs.UUID.UUID,
		Runtime: decl.CodegenIgnore(),
		Chain:   []string{decl.Name},
		Span:    decl.Span,
	}
	if len(decl.Bases) == 1 {
		baseDecl, err := r.lookupBase(decl.Bases[0])
		if err != nil {
			return nil, err
		}
		base, err := r.resolveInterface(baseDecl)
		if err != nil {
			return nil, err
		}
		iface.Base = base.Name
		iface.Chain = append(iface.Chain, base.Chain...)
		iface.Methods = slices.Clone(base.Methods)
	}

	for _, m := range decl.Methods {
		method, err := r.resolveMethod(m, decl.Name)
		if err != nil {
			return nil, err
		}
		iface.Own = append(iface.Own, method)
		iface.Methods = append(iface.Methods, method)
	}
	if err := checkUnique(iface.Methods, nil, "interface "+decl.Name); err != nil {
		return nil, err
	}

	r.states[decl.Name] = completed
	r.ifaces[decl.Name] = iface
	return iface, nil
}

func (r *Resolver) resolveMethod(m *metadata.Method, owner string) (*Method, error) {
	result, err := r.mapper.Return(m, r.lookup)
	if err != nil {
		return nil, err
	}
	method := &Method{
		Name:     m.Name,
		GoName:   metadata.ExportedName(m.Name),
		Owner:    owner,
		Internal: m.Internal(),
		Result:   result,
		Span:     m.Span,
	}
	seen := make(map[string]bool, len(m.Params))
	locals := make(map[string]bool, len(m.Params))
	for _, p := range m.Params {
		if seen[p.Name] {
			return nil, diag.Errorf(diag.DuplicateSymbol, p.Span, "parameter %s of %s is declared twice", p.Name, m.Name)
		}
		seen[p.Name] = true

		typ, err := r.mapper.Param(m, p, r.lookup)
		if err != nil {
			return nil, err
		}
		local := metadata.LocalName(p.Name, r.reserved)
		for locals[local] {
			local += "_"
		}
		locals[local] = true
		method.Params = append(method.Params, Param{
			Name:  p.Name,
			Local: local,
			Type:  typ,
		})
	}
	return method, nil
}

// checkUnique reports the first method whose Go name is already taken.
func checkUnique(methods []*Method, taken map[string]string, scope string) error {
	if taken == nil {
		taken = make(map[string]string, len(methods))
	}
	for _, m := range methods {
		if owner, ok := taken[m.GoName]; ok {
			return diag.Errorf(diag.DuplicateMethod, m.Span, "method %s of %s collides with %s in %s", m.GoName, m.Owner, owner, scope)
		}
		taken[m.GoName] = m.Owner
	}
	return nil
}

func (r *Resolver) resolveClass(decl *metadata.Class) (*Class, error) {
	class := &Class{
		Name:       decl.Name,
		CLSID:      decl.Attrs.UUID.UUID,
		HasCLSID:   decl.Attrs.UUID.Valid,
		InnerField: decl.Attrs.InnerField,
		Span:       decl.Span,
	}

	seen := make(map[string]bool, len(decl.Bases))
	for i, ref := range decl.Bases {
		if seen[ref.Name] {
			return nil, diag.Errorf(diag.DuplicateSymbol, ref.Span, "class %s lists %s twice", decl.Name, ref.Name)
		}
		seen[ref.Name] = true

		baseDecl, err := r.lookupBase(ref)
		if err != nil {
			return nil, err
		}
		base, err := r.resolveInterface(baseDecl)
		if err != nil {
			return nil, err
		}
		offset, err := safecast.Conv[int32](i)
		if err != nil {
			return nil, diag.Errorf(diag.InvalidTypeUse, ref.Span, "too many bases: %v", err)
		}
		if err := r.checkWired(base, ref); err != nil {
			return nil, err
		}
		class.Slots = append(class.Slots, Slot{Interface: base.Name, Offset: offset})
	}

	class.Identities = r.identities(class.Slots)
	class.Ancestors = r.ancestors(decl.Bases)

	for _, m := range decl.Methods {
		method, err := r.resolveMethod(m, decl.Name)
		if err != nil {
			return nil, err
		}
		class.Direct = append(class.Direct, method)
	}
	class.Dispatch = slices.Clone(class.Direct)
	for _, name := range class.Ancestors {
		class.Dispatch = append(class.Dispatch, r.ifaces[name].Own...)
	}

	taken := map[string]string{
		QueryInterfaceName: decl.Name,
		AddRefName:         decl.Name,
		ReleaseName:        decl.Name,
	}
	if err := checkUnique(class.Dispatch, taken, "class "+decl.Name); err != nil {
		return nil, err
	}
	return class, nil
}

// checkWired makes sure every vtable entry of base has a dispatcher: methods
// of runtime interfaces can only be the lifecycle ones.
func (r *Resolver) checkWired(base *Interface, ref metadata.Ref) error {
	for _, m := range base.Methods {
		if r.ifaces[m.Owner].Runtime && !IsLifecycle(m.GoName) {
			return diag.Errorf(diag.UnimplementedMethod, ref.Span, "method %s of %s has no implementation for %s", m.Name, m.Owner, base.Name)
		}
	}
	return nil
}

// identities walks each slot's chain in base order; the first slot to reach
// an interface answers for it.
func (r *Resolver) identities(slots []Slot) []Identity {
	var out []Identity
	visited := make(map[string]bool)
	for _, slot := range slots {
		for _, name := range r.ifaces[slot.Interface].Chain {
			if visited[name] {
				continue
			}
			visited[name] = true
			out = append(out, Identity{Interface: name, Runtime: r.ifaces[name].Runtime, Offset: slot.Offset})
		}
	}
	return out
}

func (r *Resolver) ancestors(bases []metadata.Ref) []string {
	var out []string
	visited := make(map[string]bool)
	queue := make([]string, 0, len(bases))
	for _, b := range bases {
		queue = append(queue, b.Name)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		iface := r.ifaces[name]
		if iface.Runtime {
			continue
		}
		if iface.Base != "" {
			queue = append(queue, iface.Base)
		}
		out = append(out, name)
	}
	return out
}
