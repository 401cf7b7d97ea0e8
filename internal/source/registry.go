package source

import (
	"fmt"
	"sort"

	"BookmarkSummarizer/internal/ports"
)

// Registry keeps a mapping from source kinds to their message sources.
type Registry struct {
	sources map[string]ports.MessageSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.MessageSource{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(kind string, src ports.MessageSource) {
	if r.sources == nil {
		r.sources = map[string]ports.MessageSource{}
	}
	r.sources[kind] = src
}

// Resolve returns a source by kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (ports.MessageSource, error) {
	if src, ok := r.sources[kind]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %q is not registered (known: %v)", kind, r.Kinds())
}

// Kinds lists registered source kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.sources))
	for kind := range r.sources {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
