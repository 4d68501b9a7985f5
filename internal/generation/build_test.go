package generation_test

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"ccidl/internal/generation"
	"ccidl/internal/resolve"
	"ccidl/internal/source"
	"ccidl/internal/syntax"
	"ccidl/internal/typemap"
)

const testModule = "gentest"

// TestGeneratedCodeRuns compiles each unit under testdata into a throwaway
// module next to a stub runtime and runs the Go tests shipped with it.
func TestGeneratedCodeRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a separate module")
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not on PATH")
	}

	dir := t.TempDir()
	copyTree(t, filepath.Join("testdata", "module"), dir)
	writeFile(t, filepath.Join(dir, "go.mod"), "module "+testModule+"\n\ngo 1.22\n")
	for _, pkg := range []string{"comgen", "alltypes"} {
		generateInto(t, filepath.Join("testdata", pkg+".idl"), dir, pkg)
	}

	run := func(args ...string) ([]byte, error) {
		cmd := exec.Command(goTool, args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GOWORK=off", "GOFLAGS=")
		return cmd.CombinedOutput()
	}
	if out, err := run("mod", "tidy"); err != nil {
		t.Skipf("cannot fetch the generated code's imports: %v\n%s", err, out)
	}
	if out, err := run("test", "-count=1", "./..."); err != nil {
		t.Fatalf("generated packages failed: %v\n%s", err, out)
	}
}

func generateInto(t *testing.T, idl, dir, pkg string) {
	t.Helper()
	text, err := os.ReadFile(idl)
	if err != nil {
		t.Fatal(err)
	}
	unit, err := syntax.Parse(source.NewFile(filepath.Base(idl), text))
	if err != nil {
		t.Fatalf("Parse %s: %v", idl, err)
	}
	mapper := typemap.NewMapper(testModule+"/crosscom", testModule+"/"+pkg)
	resolved, err := resolve.Resolve(unit, mapper)
	if err != nil {
		t.Fatalf("Resolve %s: %v", idl, err)
	}
	generator := generation.NewGenerator(pkg, testModule+"/"+pkg, mapper)
	generator.SourceName = filepath.Base(idl)
	generator.RegisterUnit(resolved)

	if err := os.MkdirAll(filepath.Join(dir, pkg), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, pkg, "crosscom_gen.go"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := generator.Render(f); err != nil {
		t.Fatalf("Render %s: %v", idl, err)
	}
}

func copyTree(t *testing.T, from, to string) {
	t.Helper()
	err := filepath.WalkDir(from, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}
