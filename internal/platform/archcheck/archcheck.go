// Package archcheck enforces the import rules between bounded-context layers.
//
// Every service lives at contexts/<context>/<service>. Inside it, domain code
// imports only the domain and value libraries; ports add the event contracts;
// application code adds ports and its own packages. No layer may reach into
// another service or into runtime infrastructure under internal/.
package archcheck

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ValueLibraries model plain values and are importable from every layer.
var ValueLibraries = []string{
	"github.com/shopspring/decimal",
}

type Violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d imports %q (%s)", v.File, v.Line, v.Import, v.Rule)
}

type layerRule struct {
	// siblings are service-relative package roots the layer may import.
	siblings  []string
	contracts bool
}

var layerRules = map[string]layerRule{
	"domain":      {siblings: []string{"domain"}},
	"ports":       {siblings: []string{"domain", "ports"}, contracts: true},
	"application": {siblings: []string{"application", "domain", "ports"}, contracts: true},
}

// Check parses every non-test Go file under root/contexts and returns the
// violations sorted by file and line.
func Check(root string, modulePath string) ([]Violation, error) {
	contextsDir := filepath.Join(root, "contexts")
	var violations []Violation

	err := filepath.WalkDir(contextsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		parts := strings.Split(rel, "/")
		if len(parts) < 4 {
			return nil
		}
		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, checkFile(path, rel, parts[3], servicePrefix, modulePath)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations, nil
}

func checkFile(path string, rel string, layer string, servicePrefix string, modulePath string) []Violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []Violation{{File: rel, Line: 1, Rule: "file must parse"}}
	}

	var violations []Violation
	add := func(line int, importPath string, rule string) {
		violations = append(violations, Violation{File: rel, Line: line, Import: importPath, Rule: rule})
	}

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			add(line, importPath, "cross-service imports are forbidden")
		}

		rule, layered := layerRules[layer]
		if !layered {
			continue
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			add(line, importPath, layer+" must not import runtime infrastructure")
			continue
		}
		if strings.Contains(importPath, "/adapters/") || strings.HasSuffix(importPath, "/adapters") {
			add(line, importPath, layer+" must not import adapters")
			continue
		}
		if isStdlib(importPath, modulePath) || isAllowed(importPath, allowedFor(rule, servicePrefix, modulePath)) {
			continue
		}
		add(line, importPath, layer+" import is outside explicit allowlist")
	}
	return violations
}

func allowedFor(rule layerRule, servicePrefix string, modulePath string) []string {
	allowed := make([]string, 0, len(rule.siblings)+len(ValueLibraries)+1)
	for _, sibling := range rule.siblings {
		allowed = append(allowed, servicePrefix+"/"+sibling)
	}
	if rule.contracts {
		allowed = append(allowed, modulePath+"/contracts")
	}
	return append(allowed, ValueLibraries...)
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string, modulePath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
