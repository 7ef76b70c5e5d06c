// Command check_boundaries enforces the layering of every service under
// contexts/: entities at the bottom, then ports, then application, with
// adapters and transport on the outside. Each layer also carries its own list
// of third-party modules.
//
//	go run ./scripts/check_boundaries.go
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "bountyboard"

type layerRule struct {
	// local lists the service's own layers this layer may import.
	local []string
	// external lists module path prefixes outside the standard library.
	external []string
}

var rules = map[string]layerRule{
	"domain": {
		local: []string{"domain"},
	},
	"ports": {
		local: []string{"domain", "ports"},
	},
	"application": {
		local:    []string{"domain", "ports", "application"},
		external: []string{"golang.org/x/sync", "github.com/sahilm/fuzzy"},
	},
	"transport": {
		local: []string{"transport"},
	},
	"adapters/http": {
		local:    []string{"domain", "ports", "application", "transport"},
		external: []string{"github.com/go-playground/validator/v10"},
	},
	"adapters/memory": {
		local:    []string{"domain", "ports"},
		external: []string{"github.com/google/uuid"},
	},
	"adapters/postgres": {
		local:    []string{"domain", "ports"},
		external: []string{"github.com/google/uuid", "github.com/jackc/pgx/v5", "gorm.io/gorm"},
	},
	"adapters/cache": {
		local:    []string{"domain", "ports"},
		external: []string{"github.com/hashicorp/golang-lru", "github.com/redis/go-redis/v9"},
	},
	"adapters/lock": {
		local:    []string{"domain", "ports"},
		external: []string{"github.com/cenkalti/backoff/v4", "github.com/google/uuid", "github.com/redis/go-redis/v9", "gorm.io/gorm"},
	},
	"adapters/metrics": {
		local:    []string{"domain", "ports"},
		external: []string{"github.com/prometheus/client_golang"},
	},
	// The service root wires its own layers together.
	"": {
		local:    []string{"domain", "ports", "application", "transport", "adapters"},
		external: []string{"github.com/go-playground/validator/v10", "golang.org/x/sync"},
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	violations, err := collectViolations("contexts")
	if err != nil {
		fmt.Fprintln(os.Stderr, "boundary check failed:", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		return violations[i].Line < violations[j].Line
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		// contexts/<context>/<service>/<layer...>/file.go
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < 4 {
			return nil
		}
		service := modulePath + "/" + strings.Join(parts[:3], "/")
		layer := layerOf(parts[3 : len(parts)-1])

		found, err := checkFile(path, service, layer)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	return violations, err
}

// layerOf names the rule for a directory inside a service. Adapters are
// ruled per kind, everything else by its top directory.
func layerOf(dirs []string) string {
	if len(dirs) == 0 {
		return ""
	}
	if dirs[0] == "adapters" && len(dirs) > 1 {
		return "adapters/" + dirs[1]
	}
	return dirs[0]
}

func checkFile(path string, service string, layer string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	rule, known := rules[layer]
	name := filepath.ToSlash(path)
	var out []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		v := violation{File: name, Line: fset.Position(imp.Pos()).Line, Import: importPath}

		switch {
		case !known:
			v.Rule = fmt.Sprintf("unknown layer %q", layer)
		case isStdlib(importPath):
			continue
		case within(importPath, service):
			target := ""
			if importPath != service {
				target = layerOf(strings.Split(strings.TrimPrefix(importPath, service+"/"), "/"))
			}
			if matchesAny(target, rule.local) {
				continue
			}
			v.Rule = fmt.Sprintf("%s must not depend on %s", label(layer), label(target))
		case within(importPath, modulePath):
			v.Rule = "services must not import other services or process wiring"
		case matchesAny(importPath, rule.external):
			continue
		default:
			v.Rule = fmt.Sprintf("%s may not use this third-party module", label(layer))
		}
		out = append(out, v)
	}
	return out, nil
}

func label(layer string) string {
	if layer == "" {
		return "service root"
	}
	return layer
}

func within(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// matchesAny also lets "adapters" cover "adapters/<kind>".
func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if within(path, prefix) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return first != modulePath && !strings.Contains(first, ".")
}
