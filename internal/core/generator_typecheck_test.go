package core

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/gokvo/pkg/models"
)

// --- Helper ---

// codeChecker type-checks generated files as if they lived in this package
// directory, so the kvo runtime and the standard library are loaded from
// source. Import paths registered with stub resolve to empty struct types.
type codeChecker struct {
	fset  *token.FileSet
	dir   string
	src   types.ImporterFrom
	stubs map[string]*types.Package
}

func newCodeChecker(t *testing.T) *codeChecker {
	t.Helper()
	if testing.Short() {
		t.Skip("type-checking generated code loads packages from source")
	}
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	fset := token.NewFileSet()
	src, ok := importer.ForCompiler(fset, "source", nil).(types.ImporterFrom)
	if !ok {
		t.Fatal("source importer does not implement types.ImporterFrom")
	}
	return &codeChecker{fset: fset, dir: dir, src: src, stubs: make(map[string]*types.Package)}
}

// stub makes importPath resolvable and declares typeNames in it.
func (c *codeChecker) stub(importPath string, typeNames ...string) {
	pkg := types.NewPackage(importPath, path.Base(importPath))
	for _, name := range typeNames {
		obj := types.NewTypeName(token.NoPos, pkg, name, nil)
		types.NewNamed(obj, types.NewStruct(nil, nil), nil)
		pkg.Scope().Insert(obj)
	}
	pkg.MarkComplete()
	c.stubs[importPath] = pkg
}

func (c *codeChecker) Import(importPath string) (*types.Package, error) {
	return c.ImportFrom(importPath, c.dir, 0)
}

func (c *codeChecker) ImportFrom(importPath, dir string, mode types.ImportMode) (*types.Package, error) {
	if pkg, ok := c.stubs[importPath]; ok {
		return pkg, nil
	}
	return c.src.ImportFrom(importPath, dir, mode)
}

// check parses and type-checks one generated file.
func (c *codeChecker) check(src []byte) error {
	file, err := parser.ParseFile(c.fset, filepath.Join(c.dir, "zz_generated_kvo.go"), src, 0)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	conf := types.Config{Importer: c}
	if _, err := conf.Check("example.com/generated", c.fset, []*ast.File{file}, nil); err != nil {
		return fmt.Errorf("type-checking: %w", err)
	}
	return nil
}

func generateSource(obj models.ObjectSchema) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewGenerator().Generate(models.GenerateOptions{Package: "gen"}, obj, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- Type-check tests ---

func TestGenerate_OutputTypeChecks(t *testing.T) {
	c := newCodeChecker(t)
	c.stub("example.com/o", "Thing")
	c.stub("example.com/other/o", "Thing")

	tests := []struct {
		name string
		src  string
	}{
		{"person", personSchema},
		{"key shaped like a subscriber list", `{"__name__": "Thing", "a": 1, "a_subscribers": 2, "subs_a": 3}`},
		{"package named o", `{"__name__": "Holder", "thing": {"__name__": "Thing", "__package__": "example.com/o"}}`},
		{"two packages named o", `{
			"__name__": "Holder",
			"first": {"__name__": "Thing", "__package__": "example.com/o"},
			"second": {"__name__": "Thing", "__package__": "example.com/other/o"}
		}`},
		{"int64 bounds", `{"__name__": "Bounds", "min": -9223372036854775808, "max": 9223372036854775807}`},
		{"float extremes", `{"__name__": "Bounds", "big": 1.7976931348623157e308, "tiny": 4e-320, "exp": 1e5}`},
		{"receiver named keys", `{"__name__": "Keys", "o": 1, "v": "x", "fn": true, "old": 2.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := generateSource(mustParseJSON(t, tt.src))
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if err := c.check(src); err != nil {
				t.Fatalf("%v\n%s", err, src)
			}
		})
	}
}

func TestCollectTypes_NumbersOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"int above int64", `{"__name__": "T", "n": 99999999999999999999}`, "out of range for int64"},
		{"int below int64", `{"__name__": "T", "n": -9223372036854775809}`, "out of range for int64"},
		{"float overflow", `{"__name__": "T", "f": 1e400}`, "out of range for float64"},
		{"negative float overflow", `{"__name__": "T", "f": -2.5E309}`, "out of range for float64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := mustParseJSON(t, tt.src)
			if _, err := generateSource(obj); err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Generate error = %v, want one containing %q", err, tt.wantMsg)
			}
			if _, err := NewLiveObject(obj); err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("NewLiveObject error = %v, want one containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestCollectTypes_ReservedImportAlias(t *testing.T) {
	obj := mustParseJSON(t, `{"__name__": "Holder", "thing": {"__name__": "Thing", "__package__": "example.com/o"}}`)
	plan, err := CollectTypes(obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Imports) != 1 || plan.Imports[0].Alias != "o2" {
		t.Errorf("imports = %+v, want example.com/o aliased o2", plan.Imports)
	}
}
