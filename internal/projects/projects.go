// Package projects maps work items to named projects using a YAML registry.
package projects

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/pkg/models"
)

// Unassigned names items no rule or fallback could place.
const Unassigned = "unassigned"

// Project describes one project and how to recognise its items.
type Project struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Paths       []string `yaml:"paths"`
	Repos       []string `yaml:"repos"`
}

// Config is the top-level YAML structure.
type Config struct {
	Projects []Project `yaml:"projects"`
}

// Registry holds loaded projects, keyed by name.
type Registry struct {
	byName map[string]*Project
	order  []string // preserves definition order
}

// Load reads the YAML file at path and returns a Registry.
// If the file does not exist, Load returns an empty Registry (not an error).
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(nil), nil
		}
		return nil, fmt.Errorf("read projects: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse projects: %w", err)
	}
	return NewRegistry(cfg.Projects), nil
}

// NewRegistry builds a registry from projects. Paths are expanded and cleaned;
// a later project with a duplicate name replaces the earlier one.
func NewRegistry(projects []Project) *Registry {
	r := &Registry{byName: make(map[string]*Project, len(projects))}
	for i := range projects {
		p := projects[i]
		for j, path := range p.Paths {
			p.Paths[j] = filepath.Clean(config.ExpandPath(path))
		}
		if _, exists := r.byName[p.Name]; !exists {
			r.order = append(r.order, p.Name)
		}
		r.byName[p.Name] = &p
	}
	return r
}

// Get returns a project by name. Returns (nil, false) if not found.
func (r *Registry) Get(name string) (*Project, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns all projects in definition order.
func (r *Registry) All() []*Project {
	result := make([]*Project, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.byName[name])
	}
	return result
}

// Names returns a sorted list of project names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Resolve returns the project name and path for an item.
//
// The longest configured path containing the item's cwd or repoPath wins. Then a
// configured repo matching the item's repo metadata. Otherwise the directory base
// name, the repo name, or Unassigned.
func (r *Registry) Resolve(item models.WorkItem) (name, path string) {
	dir := item.MetadataString("cwd")
	if dir == "" {
		dir = item.MetadataString("repoPath")
	}
	repo := item.MetadataString("repo")

	if dir != "" {
		dir = filepath.Clean(dir)
		best, bestLen := "", -1
		for _, p := range r.All() {
			for _, prefix := range p.Paths {
				if within(dir, prefix) && len(prefix) > bestLen {
					best, bestLen = p.Name, len(prefix)
				}
			}
		}
		if best != "" {
			return best, r.byName[best].Paths[0]
		}
	}

	if repo != "" {
		for _, p := range r.All() {
			for _, candidate := range p.Repos {
				if repoMatches(repo, candidate) {
					path := ""
					if len(p.Paths) > 0 {
						path = p.Paths[0]
					}
					return p.Name, path
				}
			}
		}
	}

	switch {
	case dir != "":
		return filepath.Base(dir), dir
	case repo != "":
		return repoName(repo), ""
	}
	return Unassigned, ""
}

// Group is the items of one project.
type Group struct {
	Name  string
	Path  string
	Items []models.WorkItem
}

// GroupItems resolves every item and groups them by project in first-seen order.
func (r *Registry) GroupItems(items []models.WorkItem) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, item := range items {
		name, path := r.Resolve(item)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name, Path: path})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// within reports whether dir is prefix or lies beneath it.
func within(dir, prefix string) bool {
	if dir == prefix {
		return true
	}
	if prefix == string(filepath.Separator) {
		return true
	}
	return strings.HasPrefix(dir, prefix+string(filepath.Separator))
}

// repoMatches compares "owner/name" or bare names case-insensitively.
func repoMatches(repo, candidate string) bool {
	repo, candidate = strings.ToLower(repo), strings.ToLower(candidate)
	if repo == candidate {
		return true
	}
	if !strings.Contains(candidate, "/") || !strings.Contains(repo, "/") {
		return repoName(repo) == repoName(candidate)
	}
	return false
}

func repoName(repo string) string {
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		return repo[i+1:]
	}
	return repo
}
