package generation_test

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"ccidl/internal/generation"
	"ccidl/internal/resolve"
	"ccidl/internal/source"
	"ccidl/internal/syntax"
	"ccidl/internal/typemap"
)

func generate(t *testing.T, text string) string {
	t.Helper()
	unit, err := syntax.Parse(source.NewFile("test.idl", []byte(text)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	mapper := typemap.NewMapper("crosscom", "")
	resolved, err := resolve.Resolve(unit, mapper)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	generator := generation.NewGenerator("comgen", "", mapper)
	generator.SourceName = "test.idl"
	generator.RegisterUnit(resolved)

	var buf bytes.Buffer
	if err := generator.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func expect(t *testing.T, out string, patterns ...string) {
	t.Helper()
	for _, p := range patterns {
		if !regexp.MustCompile(p).MatchString(out) {
			t.Errorf("output does not match %q\n%s", p, out)
		}
	}
}

const scenario = `
[codegen(ignore)]
interface IUnknown {}

[uuid(6ac46481-7efa-45ff-a279-687b4603c746)]
interface IFoo : IUnknown {
    int Bar(int x);
}

class CFoo : IFoo {}
`

func TestScenario(t *testing.T) {
	out := generate(t, scenario)

	expect(t, out,
		`^// Code generated by ccidl from test\.idl\. DO NOT EDIT\.`,
		`package comgen`,
		`var IFooIID = crosscom\.Guid\{0x6a, 0xc4, 0x64, 0x81, 0x7e, 0xfa, 0x45, 0xff, 0xa2, 0x79, 0x68, 0x7b, 0x46, 0x03, 0xc7, 0x46\}`,
		`type IFooVirtualTable struct \{\s+Bar\s+uintptr\s+\}`,
		`type IFooVirtualTableCcw struct \{\s+Offset\s+int\s+Vtable\s+IFooVirtualTable\s+\}`,
		`type IFoo struct \{\s+vtable \*IFooVirtualTable\s+\}`,
		`func \(i \*IFoo\) Bar\(x int32\) int32 \{`,
		`purego\.RegisterFunc\(&call, i\.vtable\.Bar\)`,
		`type IFooImpl interface \{\s+Bar\(x int32\) int32\s+\}`,
		`type CFooCcw struct \{\s+IFoo\s+\*IFooVirtualTable\s+refCount\s+atomic\.Uint32\s+pinner\s+runtime\.Pinner\s+inner\s+CFooImpl\s+\}`,
		`case IFooIID:\s+\*retval = object\.slot\(0\)\s+object\.AddRef\(\)\s+return int32\(crosscom\.ResultCodeOk\)`,
		`case crosscom\.IUnknownIID:\s+\*retval = object\.slot\(0\)`,
		`return int32\(crosscom\.ResultCodeENoInterface\)`,
		`func \(cFooDispatch\) Bar\(this unsafe\.Pointer, x int32\) int32 \{\s+object := crosscom\.GetObject\[CFooCcw\]\(this\)\s+ret := object\.inner\.Bar\(x\)\s+return ret\s+\}`,
		`var globalIFooVirtualTableCcwForCFoo = IFooVirtualTableCcw\{\s+Offset: 0,\s+Vtable: IFooVirtualTable\{\s*Bar: purego\.NewCallback\(cFooDispatch\{\}\.Bar\)`,
		`func NewCFooCcw\(inner CFooImpl\) \*CFooCcw \{`,
		`IFoo:\s+&globalIFooVirtualTableCcwForCFoo\.Vtable`,
		`object\.pinner\.Pin\(object\)`,
	)

	if n := strings.Count(out, "case "); n != 2 {
		t.Errorf("QueryInterface has %d branches, want 2", n)
	}
	if n := strings.Count(out, ") Bar("); n != 2 {
		t.Errorf("found %d Bar wrappers/dispatchers, want 2", n)
	}
	if strings.Contains(out, "type IUnknown") {
		t.Error("runtime interface was emitted")
	}
}

func TestReferenceCounting(t *testing.T) {
	out := generate(t, scenario)
	expect(t, out,
		`func \(o \*CFooCcw\) AddRef\(\) uint32 \{\s+return o\.refCount\.Add\(1\)\s+\}`,
		`count := o\.refCount\.Add\(\^uint32\(0\)\)\s+if count == 0 \{\s+o\.inner = nil\s+o\.pinner\.Unpin\(\)\s+\}\s+return count`,
		`func \(cFooDispatch\) Release\(this unsafe\.Pointer\) int32 \{\s+return int32\(crosscom\.GetObject\[CFooCcw\]\(this\)\.Release\(\)\)`,
		`if offset < 0 \|\| offset >= 1 \{`,
	)
}

const richer = `
[uuid(00000000-0000-0000-C000-000000000046), codegen(ignore)]
interface IUnknown {
    long query_interface(UUID guid, [out] IUnknown retval);
    long add_ref();
    long release();
}

[uuid(11111111-2222-3333-4444-555555555555)]
interface IA : IUnknown {
    IA? next(IA[] all, [out] IA found);
    [internal()] void poke(*Widget w);
}

[uuid(66666666-7777-8888-9999-aaaaaaaaaaaa)]
interface IB : IUnknown {
    UUID id();
}

[uuid(bbbbbbbb-cccc-dddd-eeee-ffffffffffff), inner_field(core)]
class CBoth : IA, IB {}
`

func TestTwoBases(t *testing.T) {
	out := generate(t, richer)
	expect(t, out,
		`var CBothCLSID = crosscom\.Guid\{0xbb,`,
		`type CBothHost interface \{\s+Core\(\) CBothImpl\s+\}`,
		`type CBothImpl interface \{\s+IAImpl\s+IBImpl\s+\}`,
		`type CBothCcw struct \{\s+IA\s+\*IAVirtualTable\s+IB\s+\*IBVirtualTable`,
		`inner\s+CBothHost`,
		`case IBIID:\s+\*retval = object\.slot\(1\)`,
		`var globalIBVirtualTableCcwForCBoth = IBVirtualTableCcw\{\s+Offset: -1,`,
		`QueryInterface:\s+purego\.NewCallback\(cBothDispatch\{\}\.QueryInterface\)`,
		`Poke:\s+cBothDispatch\{\}\.Poke,`,
		`func \(cBothDispatch\) Id\(this unsafe\.Pointer, retval \*crosscom\.Guid\) \{\s+object := crosscom\.GetObject\[CBothCcw\]\(this\)\s+ret := object\.inner\.Core\(\)\.Id\(\)\s+\*retval = crosscom\.Guid\(ret\)\s+\}`,
		`func NewCBothCcw\(inner CBothHost\) \*CBothCcw`,
	)
	if n := strings.Count(out, "case "); n != 3 {
		t.Errorf("QueryInterface has %d branches, want 3", n)
	}
}

func TestMarshalling(t *testing.T) {
	out := generate(t, richer)
	expect(t, out,
		// the generic QueryInterface helper
		`func IAQueryInterface\[T any, P interface ?\{\s+\*T\s+crosscom\.ComInterface\s+\}\]\(i \*IA\) \(\*crosscom\.ComRc\[T\], bool\)`,
		`guid := P\(nil\)\.IID\(\)`,
		`return crosscom\.FromRawPointer\[T\]\(ptr\), true`,
		// caller side
		`func \(i \*IA\) Next\(all \*crosscom\.ObjectArray\[IA\], found \*\*crosscom\.ComRc\[IA\]\) crosscom\.Option\[\*crosscom\.ComRc\[IA\]\]`,
		`var foundRaw unsafe\.Pointer`,
		`ret := call\(unsafe\.Pointer\(i\), all\.Raw\(\), &foundRaw\)\s+\*found = crosscom\.FromRawPointer\[IA\]\(foundRaw\)\s+return crosscom\.OptionFromRawPointer\[IA\]\(ret\)`,
		`func \(i \*IA\) Poke\(w \*Widget\) \{\s+i\.vtable\.Poke\(unsafe\.Pointer\(i\), w\)\s+\}`,
		`Poke\s+func\(this unsafe\.Pointer, w \*Widget\)`,
		// callee side
		`func \(cBothDispatch\) Next\(this unsafe\.Pointer, all unsafe\.Pointer, found \*unsafe\.Pointer\) crosscom\.RawPointer`,
		`var foundSafe \*crosscom\.ComRc\[IA\]`,
		`ret := object\.inner\.Core\(\)\.Next\(crosscom\.ObjectArrayFromBorrowedPointer\[IA\]\(all\), &foundSafe\)\s+if foundSafe != nil \{\s+\*found = foundSafe\.IntoRaw\(\)\s+\}\s+return crosscom\.OptionIntoRaw\(ret\)`,
		`func \(i \*IB\) Id\(\) uuid\.UUID \{\s+var call func\(this unsafe\.Pointer, retval \*crosscom\.Guid\)`,
		`var ret crosscom\.Guid\s+call\(unsafe\.Pointer\(i\), &ret\)\s+return uuid\.UUID\(ret\)`,
		`guid := P\(nil\)\.IID\(\)\s+if call\(unsafe\.Pointer\(i\), &guid, &ptr\) != 0`,
		`func \(cBothDispatch\) QueryInterface\(this unsafe\.Pointer, guid \*crosscom\.Guid, retval \*unsafe\.Pointer\) int32 \{`,
		`switch \*guid \{`,
		`"github.com/google/uuid"`,
		`purego "github.com/ebitengine/purego"|"github.com/ebitengine/purego"`,
	)
	if strings.Contains(out, "func (i *IA) QueryInterface") {
		t.Error("QueryInterface must be a generic function, not a method")
	}
}

const floats = `
[codegen(ignore)]
interface IUnknown {}

[uuid(11111111-2222-3333-4444-555555555555)]
interface IB : IUnknown {
    UUID id(UUID seed);
}

[uuid(66666666-7777-8888-9999-aaaaaaaaaaaa)]
interface IC : IB {
    float f(longlong a);
    double g(double x, [out] IC next);
    int h(float y);
}

class CFloat : IC {}
`

// Float and UUID results cannot be returned from a C callback, so they are
// written through a trailing pointer on both sides of the boundary.
func TestIndirectResults(t *testing.T) {
	out := generate(t, floats)
	expect(t, out,
		`F\s+uintptr`,
		`func \(i \*IC\) F\(a int64\) float32 \{\s+var ret float32\s+var call func\(this unsafe\.Pointer, a int64, retval \*float32\)\s+purego\.RegisterFunc\(&call, i\.vtable\.F\)\s+call\(unsafe\.Pointer\(i\), a, &ret\)\s+return ret\s+\}`,
		`var nextRaw unsafe\.Pointer\s+var ret float64`,
		`call\(unsafe\.Pointer\(i\), x, &nextRaw, &ret\)\s+\*next = crosscom\.FromRawPointer\[IC\]\(nextRaw\)\s+return ret`,
		`func \(cFloatDispatch\) F\(this unsafe\.Pointer, a int64, retval \*float32\) \{\s+object := crosscom\.GetObject\[CFloatCcw\]\(this\)\s+ret := object\.inner\.F\(a\)\s+\*retval = ret\s+\}`,
		`func \(cFloatDispatch\) G\(this unsafe\.Pointer, x float64, next \*unsafe\.Pointer, retval \*float64\) \{`,
		`func \(cFloatDispatch\) H\(this unsafe\.Pointer, y float32\) int32 \{`,
		`seedRaw := crosscom\.Guid\(seed\)`,
		`ret := object\.inner\.Id\(uuid\.UUID\(\*seed\)\)\s+\*retval = crosscom\.Guid\(ret\)`,
	)
	for _, sig := range []string{") float32 {", ") float64 {", ") crosscom.Guid {"} {
		if strings.Contains(dispatchers(out), sig) {
			t.Errorf("a dispatcher still returns %q", sig)
		}
	}
}

// dispatchers returns the text of every dispatcher method.
func dispatchers(out string) string {
	var b strings.Builder
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "func (c") && strings.Contains(line, "Dispatch) ") {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
