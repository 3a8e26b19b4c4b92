package workspace

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("proseflow.workspace")

// Registry holds the set of workspace root URIs announced by the client.
// Roots come and go with initialize and workspace-folder change events.
type Registry struct {
	mu    sync.RWMutex
	roots map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		roots: make(map[string]struct{}),
	}
}

// SetRoots replaces the whole root set, as happens at initialize time.
func (r *Registry) SetRoots(uris []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roots = make(map[string]struct{}, len(uris))
	for _, uri := range uris {
		r.roots[normalizeRoot(uri)] = struct{}{}
	}
}

// Add registers workspace roots.
func (r *Registry) Add(uris ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, uri := range uris {
		r.roots[normalizeRoot(uri)] = struct{}{}
	}
}

// Remove unregisters workspace roots.
func (r *Registry) Remove(uris ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, uri := range uris {
		delete(r.roots, normalizeRoot(uri))
	}
}

// Roots returns the registered root URIs in no particular order.
func (r *Registry) Roots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roots := make([]string, 0, len(r.roots))
	for root := range r.roots {
		roots = append(roots, root)
	}
	return roots
}

// Resolve picks the root governing the document at uri. With nested roots
// the longest matching prefix wins, so a document lands in its nearest
// enclosing root. The second return is false when no root matches.
func (r *Registry) Resolve(uri string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.resolveLocked(uri)
}

func (r *Registry) resolveLocked(uri string) (string, bool) {
	best := ""
	found := false
	for root := range r.roots {
		if !underRoot(uri, root) {
			continue
		}
		if !found || len(root) > len(best) {
			best = root
			found = true
		}
	}
	return best, found
}

// WorkingDir resolves the working directory for the document at uri. With
// registered roots, the nearest enclosing root decides; a document outside
// every root is unroutable. Without any roots, ancestors of the document are
// searched for a project marker instead.
func (r *Registry) WorkingDir(uri string) (string, bool) {
	r.mu.RLock()
	empty := len(r.roots) == 0
	root, matched := r.resolveLocked(uri)
	r.mu.RUnlock()

	if !empty {
		if !matched {
			log.Debugf("%s is outside every workspace root", uri)
			return "", false
		}
		path, err := URIToPath(root)
		if err != nil {
			log.Errorf("workspace root %s: %s", root, err)
			return "", false
		}
		return path, true
	}

	path, err := URIToPath(uri)
	if err != nil {
		log.Debugf("cannot route %s: %s", uri, err)
		return "", false
	}
	return FindRoot(filepath.Dir(path))
}

// normalizeRoot strips trailing separators so that prefix matching works the
// same whether the client sent "file:///a" or "file:///a/".
func normalizeRoot(uri string) string {
	for len(uri) > 0 && strings.HasSuffix(uri, "/") {
		uri = uri[:len(uri)-1]
	}
	return uri
}

// underRoot reports whether uri sits at or below root, matching whole path
// segments only: "file:///a" contains "file:///a/b.md" but not
// "file:///ab.md".
func underRoot(uri, root string) bool {
	if !strings.HasPrefix(uri, root) {
		return false
	}
	return len(uri) == len(root) || uri[len(root)] == '/'
}
