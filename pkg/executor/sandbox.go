package executor

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/entrhq/replay/pkg/browser"
	"github.com/entrhq/replay/pkg/harness"
	"github.com/entrhq/replay/pkg/recording"
)

// harnessImportPath is the import path candidate code uses to reach the
// browser harness. It is bound per run, not a real module path.
const harnessImportPath = "replay/harness"

// allowedImports is the stdlib whitelist for candidate code. Packages with
// filesystem, network, process, or unsafe access stay out; the harness is
// the only way to reach the outside world.
var allowedImports = map[string]bool{
	"errors":          true,
	"fmt":             true,
	"math":            true,
	"regexp":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"time":            true,
	"unicode":         true,
	"unicode/utf8":    true,
	"encoding/json":   true,
	"encoding/base64": true,

	harnessImportPath: true,
}

// validateImports rejects candidate code that imports anything outside the
// whitelist. It scans import declarations textually so bad code is refused
// before the interpreter ever evaluates it.
func validateImports(code string) error {
	var imports []string

	inBlock := false
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
			continue
		}
		if inBlock {
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
				continue
			}
			if pkg := importPathOf(trimmed); pkg != "" {
				imports = append(imports, pkg)
			}
			continue
		}
		if strings.HasPrefix(trimmed, "import ") {
			if pkg := importPathOf(strings.TrimPrefix(trimmed, "import ")); pkg != "" {
				imports = append(imports, pkg)
			}
		}
	}

	var forbidden []string
	for _, pkg := range imports {
		if !allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		sort.Strings(forbidden)
		return fmt.Errorf("forbidden imports: %s", strings.Join(forbidden, ", "))
	}
	return nil
}

// importPathOf extracts the quoted import path from one import spec line,
// tolerating aliased imports. Empty for lines that hold no path.
func importPathOf(spec string) string {
	start := strings.IndexByte(spec, '"')
	if start < 0 {
		return ""
	}
	rest := spec[start+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// wrapCode puts bare candidate code into a main package so the entry point
// resolves as main.Run.
func wrapCode(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return "package main\n\n" + code
}

// sandboxSymbols returns the stdlib symbol set restricted to the import
// whitelist. Keys in stdlib.Symbols look like "encoding/json/json", import
// path then package basename.
func sandboxSymbols() interp.Exports {
	filtered := make(interp.Exports, len(allowedImports))
	for key, symbols := range stdlib.Symbols {
		slash := strings.LastIndexByte(key, '/')
		if slash < 0 {
			continue
		}
		if allowedImports[key[:slash]] {
			filtered[key] = symbols
		}
	}
	return filtered
}

// harnessSymbols exposes the harness package to the interpreter with
// GetInstance and FinalizeRecording bound to the current run.
func harnessSymbols(getInstance func(harness.Options) (*harness.Instance, error), finalize func(string) (*harness.Info, error)) interp.Exports {
	return interp.Exports{
		harnessImportPath + "/harness": {
			"GetInstance":       reflect.ValueOf(getInstance),
			"FinalizeRecording": reflect.ValueOf(finalize),

			"Options":  reflect.ValueOf((*harness.Options)(nil)),
			"Viewport": reflect.ValueOf((*browser.Viewport)(nil)),
			"Instance": reflect.ValueOf((*browser.Instance)(nil)),
			"Page":     reflect.ValueOf((*browser.Page)(nil)),
			"Info":     reflect.ValueOf((*recording.Info)(nil)),
		},
	}
}
