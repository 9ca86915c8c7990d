// Package classify assigns input roles to export files by name.
//
// Patterns are gobwas/glob expressions matched against the lower-cased base
// name. Roles are tried in canonical order and the first match wins; files
// matching no pattern are treated as auxiliary detail exports.
package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/gobwas/glob"
)

// DefaultPatterns match the file names produced by the scheduler export.
var DefaultPatterns = map[domain.Role][]string{
	domain.RoleOperations:           {"*operazioni*", "*operations*"},
	domain.RoleInternalRelations:    {"*relazioni interne*", "*internal relations*"},
	domain.RoleExternalPredecessors: {"*predecessori*", "*external predecessors*"},
	domain.RoleExternalSuccessors:   {"*successori*", "*external successors*"},
	domain.RoleOperatorInstructions: {"*istruzioni*", "*operator instructions*"},
}

type rule struct {
	role    domain.Role
	pattern string
	g       glob.Glob
}

// Classifier maps file names to roles.
type Classifier struct {
	rules []rule
}

// New compiles patterns. Roles absent from patterns keep their defaults.
func New(patterns map[domain.Role][]string) (*Classifier, error) {
	c := &Classifier{}
	for _, role := range domain.Roles {
		if role == domain.RoleAdditional {
			continue
		}
		list, ok := patterns[role]
		if !ok || len(list) == 0 {
			list = DefaultPatterns[role]
		}
		for _, p := range list {
			p = strings.ToLower(strings.TrimSpace(p))
			g, err := glob.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q for %s: %w", p, role, err)
			}
			c.rules = append(c.rules, rule{role: role, pattern: p, g: g})
		}
	}
	return c, nil
}

// Default returns a Classifier using DefaultPatterns.
func Default() *Classifier {
	c, err := New(nil)
	if err != nil {
		panic(err) // defaults are constants
	}
	return c
}

// Classify returns the role of the file at path, or RoleAdditional when no
// pattern matches.
func (c *Classifier) Classify(path string) domain.Role {
	name := strings.ToLower(filepath.Base(path))
	for _, r := range c.rules {
		if r.g.Match(name) {
			return r.role
		}
	}
	return domain.RoleAdditional
}

// Collect classifies paths into input files. Two files claiming the same
// primary role is an error.
func (c *Classifier) Collect(paths []string) (ports.InputFiles, error) {
	var files ports.InputFiles
	for _, p := range paths {
		role := c.Classify(p)
		if role != domain.RoleAdditional {
			if prev := files.Get(role); prev != nil {
				return ports.InputFiles{}, fmt.Errorf("both %q and %q look like %s exports", prev.Name(), filepath.Base(p), role)
			}
		}
		files.Set(role, ports.FileSource{Path: p})
	}
	return files, nil
}

// ScanDir collects the .csv files of dir, in name order.
func (c *Classifier) ScanDir(dir string) (ports.InputFiles, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ports.InputFiles{}, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return c.Collect(paths)
}
