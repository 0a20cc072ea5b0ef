package domain

import (
	"testing"

	"github.com/hugperez/jhipster-listener/testutil"
)

func TestDomainHasNoModuleImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ModuleImportForbidden, "domain records must stay a leaf package")
}
