package resolve_test

import (
	"bytes"
	"errors"
	"testing"

	"ccidl/internal/diag"
	"ccidl/internal/resolve"
	"ccidl/internal/source"
	"ccidl/internal/syntax"
	"ccidl/internal/typemap"
)

const root = `[uuid(00000000-0000-0000-C000-000000000046), codegen(ignore)]
interface IUnknown {
    long query_interface(UUID guid, [out] IUnknown retval);
    long add_ref();
    long release();
}
`

func resolveText(t *testing.T, text string) (*resolve.Unit, error) {
	t.Helper()
	unit, err := syntax.Parse(source.NewFile("test.idl", []byte(text)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return resolve.Resolve(unit, typemap.NewMapper("crosscom", "example.com/comgen"))
}

func mustResolve(t *testing.T, text string) *resolve.Unit {
	t.Helper()
	unit, err := resolveText(t, text)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return unit
}

func names(methods []*resolve.Method) []string {
	var out []string
	for _, m := range methods {
		out = append(out, m.GoName)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlattenedMethods(t *testing.T) {
	unit := mustResolve(t, `
[codegen(ignore)] interface Root {}
[uuid(11111111-0000-0000-0000-000000000000)] interface IBase : Root { void f(); void g(); }
[uuid(22222222-0000-0000-0000-000000000000)] interface IDerived : IBase { int h(int x); }
`)
	rootIface := unit.Interface("Root")
	if len(rootIface.Methods) != 0 {
		t.Errorf("Root methods = %v", names(rootIface.Methods))
	}

	base, derived := unit.Interface("IBase"), unit.Interface("IDerived")
	want := append(names(base.Methods), names(derived.Own)...)
	if got := names(derived.Methods); !equal(got, want) {
		t.Errorf("IDerived methods = %v, want %v", got, want)
	}
	if !equal(derived.Chain, []string{"IDerived", "IBase", "Root"}) {
		t.Errorf("chain = %v", derived.Chain)
	}
	if gen := unit.Generated(); len(gen) != 2 || gen[0].Name != "IBase" {
		t.Errorf("generated = %v", gen)
	}
}

func TestDisjointBasesIdentities(t *testing.T) {
	unit := mustResolve(t, `
[uuid(11111111-0000-0000-0000-000000000000)] interface IRootA {}
[uuid(22222222-0000-0000-0000-000000000000)] interface IA : IRootA {}
[uuid(33333333-0000-0000-0000-000000000000)] interface IRootB {}
[uuid(44444444-0000-0000-0000-000000000000)] interface IB : IRootB {}
class C : IA, IB {}
`)
	class := unit.Classes[0]
	a, b := unit.Interface("IA"), unit.Interface("IB")
	if want := len(a.Chain) + len(b.Chain); len(class.Identities) != want {
		t.Fatalf("identities = %+v, want %d", class.Identities, want)
	}
	offsets := map[string]int32{"IA": 0, "IRootA": 0, "IB": 1, "IRootB": 1}
	for _, id := range class.Identities {
		if offsets[id.Interface] != id.Offset {
			t.Errorf("%s at offset %d, want %d", id.Interface, id.Offset, offsets[id.Interface])
		}
	}
	if len(class.Slots) != 2 || class.Slots[1] != (resolve.Slot{Interface: "IB", Offset: 1}) {
		t.Errorf("slots = %+v", class.Slots)
	}
}

func TestSharedRootAnswersFromFirstSlot(t *testing.T) {
	unit := mustResolve(t, root+`
[uuid(11111111-0000-0000-0000-000000000000)] interface IA : IUnknown { void a(); }
[uuid(22222222-0000-0000-0000-000000000000)] interface IB : IUnknown { void b(); }
[uuid(33333333-0000-0000-0000-000000000000)] interface IC : IB { void c(); }
class C : IA, IC { [internal()] void poke(); }
`)
	class := unit.Classes[0]
	want := []resolve.Identity{
		{Interface: "IA", Offset: 0},
		{Interface: "IUnknown", Runtime: true, Offset: 0},
		{Interface: "IC", Offset: 1},
		{Interface: "IB", Offset: 1},
	}
	if len(class.Identities) != len(want) {
		t.Fatalf("identities = %+v", class.Identities)
	}
	for i := range want {
		if class.Identities[i] != want[i] {
			t.Errorf("identity %d = %+v, want %+v", i, class.Identities[i], want[i])
		}
	}
	if !equal(class.Ancestors, []string{"IA", "IC", "IB"}) {
		t.Errorf("ancestors = %v", class.Ancestors)
	}
	if got := names(class.Dispatch); !equal(got, []string{"Poke", "A", "C", "B"}) {
		t.Errorf("dispatch = %v", got)
	}
}

func TestParameterLocals(t *testing.T) {
	unit := mustResolve(t, `[uuid(11111111-0000-0000-0000-000000000000)] interface I {
    void f(int type, int object, int n, int type_, int retval, int int32, int foundRaw);
}`)
	var got []string
	for _, p := range unit.Interface("I").Own[0].Params {
		got = append(got, p.Local)
	}
	want := []string{"type_", "object_", "n", "type__", "retval_", "int32_", "foundRaw_"}
	if !equal(got, want) {
		t.Errorf("locals = %v", got)
	}
}

func TestResolveErrors(t *testing.T) {
	const ia = `[uuid(11111111-0000-0000-0000-000000000000)] interface IA { void f(); }
`
	cases := []struct {
		name string
		text string
		code diag.Code
	}{
		{"two parents", ia + "[uuid(22222222-0000-0000-0000-000000000000)] interface X : IA, IA {}", diag.MultipleInheritance},
		{"cycle", "[uuid(11111111-0000-0000-0000-000000000000)] interface A : B {}\n[uuid(22222222-0000-0000-0000-000000000000)] interface B : A {}", diag.CircularInheritance},
		{"self cycle", "[uuid(11111111-0000-0000-0000-000000000000)] interface A : A {}", diag.CircularInheritance},
		{"unknown base", "class C : IMissing {}", diag.UnresolvedSymbol},
		{"unknown type", "[uuid(11111111-0000-0000-0000-000000000000)] interface A { IMissing get(); }", diag.UnresolvedSymbol},
		{"class as interface base", "class C {}\n[uuid(11111111-0000-0000-0000-000000000000)] interface A : C {}", diag.InvalidTypeUse},
		{"class as class base", "class C {}\nclass D : C {}", diag.InvalidTypeUse},
		{"class as parameter", "class C {}\n[uuid(11111111-0000-0000-0000-000000000000)] interface A { void f(C c); }", diag.InvalidTypeUse},
		{"missing uuid", "interface A {}", diag.MissingUUID},
		{"duplicate declaration", ia + "class IA {}", diag.DuplicateSymbol},
		{"duplicate class base", ia + "class C : IA, IA {}", diag.DuplicateSymbol},
		{"duplicate parameter", "[uuid(11111111-0000-0000-0000-000000000000)] interface A { void f(int x, int x); }", diag.DuplicateSymbol},
		{"duplicate in chain", ia + "[uuid(22222222-0000-0000-0000-000000000000)] interface B : IA { void f(); }", diag.DuplicateMethod},
		{"duplicate across bases", ia + "[uuid(22222222-0000-0000-0000-000000000000)] interface IB { void f(); }\nclass C : IA, IB {}", diag.DuplicateMethod},
		{"lifecycle name", ia + "class C : IA { [internal()] void add_ref(); }", diag.DuplicateMethod},
		{"runtime method", "[codegen(ignore)] interface R { void extra(); }\n[uuid(11111111-0000-0000-0000-000000000000)] interface A : R {}\nclass C : A {}", diag.UnimplementedMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unit, err := resolveText(t, tc.text)
			if unit != nil {
				t.Errorf("got a partial unit")
			}
			if !errors.Is(err, tc.code) {
				t.Fatalf("err = %v, want %v", err, tc.code)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	unit := mustResolve(t, root+`
[uuid(11111111-0000-0000-0000-000000000000)] interface IA : IUnknown { IA? next(IA[] all); }
[uuid(99999999-0000-0000-0000-000000000000)] class C : IA {}
`)
	var buf bytes.Buffer
	if err := resolve.EncodeSnapshot(&buf, "test.idl", unit); err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	snap, err := resolve.DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if snap.Source != "test.idl" {
		t.Errorf("source = %q", snap.Source)
	}
	ia := snap.Unit.Interface("IA")
	if ia == nil || ia.IID != unit.Interface("IA").IID || len(ia.Methods) != 4 {
		t.Fatalf("IA = %+v", ia)
	}
	if ia.Methods[3].Result.Kind != typemap.KindOptional {
		t.Errorf("next result = %+v", ia.Methods[3].Result)
	}
	if c := snap.Unit.Classes[0]; !c.HasCLSID || len(c.Identities) != 2 {
		t.Errorf("class = %+v", c)
	}
}
