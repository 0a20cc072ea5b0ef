package blob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/hugperez/jhipster-listener"

// TestOnlyFacadesImportInfra ensures the infra drivers are reached only through
// the blob and persistence facades, and that the slice package stays free of
// transport and storage concerns.
func TestOnlyFacadesImportInfra(t *testing.T) {
	infraPrefix := modulePath + "/internal/infra"
	allowed := []string{
		modulePath + "/internal/blob",
		modulePath + "/internal/persistence",
		infraPrefix,
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if pkg.PkgPath == modulePath+"/internal/slice" {
			for importPath := range pkg.Imports {
				if importPath == "net/http" || hasPrefix(importPath, infraPrefix) || hasPrefix(importPath, modulePath+"/internal/restapi") {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
		if allowedPkg(pkg.PkgPath, allowed) {
			continue
		}
		for importPath := range pkg.Imports {
			if hasPrefix(importPath, infraPrefix) {
				seen[filepath.Join(pkg.PkgPath, "...")+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import: %s", v)
		}
		t.Fatalf("found %d forbidden imports", len(violations))
	}
}

func allowedPkg(path string, allowed []string) bool {
	for _, a := range allowed {
		if hasPrefix(path, a) {
			return true
		}
	}
	return false
}

func hasPrefix(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
