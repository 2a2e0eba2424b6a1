package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/leapstack-labs/leapmap"

// importsOf returns the non-test imports of the package in dir.
func importsOf(t *testing.T, dir string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}

	imports := make(map[string][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("parse %s: %v", name, err)
			continue
		}
		for _, imp := range f.Imports {
			imports[name] = append(imports[name], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return imports
}

func isStdlib(path string) bool {
	// stdlib import paths have no dot in the first element
	return !strings.Contains(strings.SplitN(path, "/", 2)[0], ".")
}

// TestCoreImportsOnly verifies pkg/core only imports the standard library.
func TestCoreImportsOnly(t *testing.T) {
	for file, imports := range importsOf(t, ".") {
		for _, imp := range imports {
			if !isStdlib(imp) {
				t.Errorf("%s imports %q; pkg/core may only import stdlib", file, imp)
			}
		}
	}
}

// TestPkgLayering verifies the pure pipeline packages stay free of the
// application layer: they may use core, each other and a short list of
// text libraries, never internal/.
func TestPkgLayering(t *testing.T) {
	allowed := []string{
		modulePath + "/pkg/",
		"golang.org/x/text/",
	}

	for _, pkg := range []string{"csvparse", "detect", "facet", "marker", "palette"} {
		t.Run(pkg, func(t *testing.T) {
			for file, imports := range importsOf(t, filepath.Join("..", pkg)) {
				for _, imp := range imports {
					if isStdlib(imp) {
						continue
					}
					ok := false
					for _, prefix := range allowed {
						if strings.HasPrefix(imp, prefix) {
							ok = true
							break
						}
					}
					if !ok {
						t.Errorf("pkg/%s/%s imports %q", pkg, file, imp)
					}
				}
			}
		})
	}
}
