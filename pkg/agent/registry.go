package agent

import (
	"sort"
	"strings"
)

// ToolPath derives the endpoint path segment for a tool name by replacing
// every underscore with a hyphen. It never fails.
func ToolPath(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// Registry maps canonical tool names to endpoint paths. It does not reject
// unknown names: the remote endpoint decides whether a tool exists, and an
// unknown name resolves to a path that answers 404.
type Registry struct {
	paths map[string]string
}

// NewRegistry copies entries into a new immutable registry. Leading slashes in
// paths are dropped.
func NewRegistry(entries map[string]string) *Registry {
	paths := make(map[string]string, len(entries))
	for name, path := range entries {
		paths[name] = strings.TrimLeft(path, "/")
	}
	return &Registry{paths: paths}
}

// DefaultEntries returns the built-in tools and their paths.
func DefaultEntries() map[string]string {
	return map[string]string{
		"post_call":     ToolPath("post_call"),
		"comments_call": ToolPath("comments_call"),
	}
}

// Resolve returns the configured path for name, or ToolPath(name) when name
// has no entry.
func (r *Registry) Resolve(name string) string {
	if r != nil {
		if path, ok := r.paths[name]; ok && path != "" {
			return path
		}
	}
	return ToolPath(name)
}

// Entries returns a copy of the registry contents.
func (r *Registry) Entries() map[string]string {
	out := make(map[string]string, len(r.paths))
	for name, path := range r.paths {
		out[name] = path
	}
	return out
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.paths))
	for name := range r.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
