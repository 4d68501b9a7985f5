// Package resolve checks a parsed unit and lays out everything the generator
// needs: flattened vtables, class slots and QueryInterface identities.
package resolve

import (
	"github.com/google/uuid"

	"ccidl/internal/metadata"
	"ccidl/internal/source"
	"ccidl/internal/typemap"
)

// Lifecycle methods are answered by every class itself.
const (
	QueryInterfaceName = "QueryInterface"
	AddRefName         = "AddRef"
	ReleaseName        = "Release"
)

func IsLifecycle(goName string) bool {
	return goName == QueryInterfaceName || goName == AddRefName || goName == ReleaseName
}

type Param struct {
	Name string
	// Local is Name made safe to use inside generated bodies.
	Local string
	Type  typemap.Type
}

type Method struct {
	Name     string
	GoName   string
	Owner    string
	Internal bool
	Params   []Param
	Result   typemap.Type
	Span     source.Span
}

type Interface struct {
	Name    string
	IID     uuid.UUID
	Runtime bool
	Base    string
	// Chain is the interface followed by its parent, grandparent, and so on.
	Chain []string
	// Methods is the flattened vtable: base methods first.
	Methods []*Method
	Own     []*Method
	Span    source.Span
}

// Slot is one embedded vtable pointer of a class, Offset pointers from the
// start of the object.
type Slot struct {
	Interface string
	Offset    int32
}

// Identity is an interface a class answers to in QueryInterface, together
// with the slot handed out for it.
type Identity struct {
	Interface string
	Runtime   bool
	Offset    int32
}

type Class struct {
	Name       string
	CLSID      uuid.UUID
	HasCLSID   bool
	InnerField string
	Slots      []Slot
	Identities []Identity
	// Ancestors are the generated interfaces reachable from the bases, breadth first.
	Ancestors []string
	Direct    []*Method
	// Dispatch holds every method the class answers to except the lifecycle ones,
	// direct methods first.
	Dispatch []*Method
	Span     source.Span
}

// Unit is a fully resolved compilation unit.
type Unit struct {
	Interfaces []*Interface
	Classes    []*Class
	Imports    []metadata.Import
	Modules    []metadata.Module

	byName map[string]*Interface
}

func (u *Unit) index() {
	u.byName = make(map[string]*Interface, len(u.Interfaces))
	for _, iface := range u.Interfaces {
		u.byName[iface.Name] = iface
	}
}

// Interface returns the resolved interface called name, or nil.
func (u *Unit) Interface(name string) *Interface {
	if u.byName == nil {
		u.index()
	}
	return u.byName[name]
}

// Generated returns the interfaces that get emitted, in declaration order.
func (u *Unit) Generated() []*Interface {
	var out []*Interface
	for _, iface := range u.Interfaces {
		if !iface.Runtime {
			out = append(out, iface)
		}
	}
	return out
}
