package common

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Revisions keeps a monotonically increasing revision per read path. A
// write revalidates the paths it affects, which changes the ETag served for
// them, so conditional GETs never confirm stale content.
type Revisions struct {
	mu    sync.Mutex
	base  int64
	paths map[string]int64
}

func NewRevisions() *Revisions {
	return &Revisions{base: time.Now().UnixNano(), paths: make(map[string]int64)}
}

// Revalidate bumps the revision of every given path.
func (r *Revisions) Revalidate(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		r.paths[normalizePath(p)]++
	}
}

// Revision returns the current revision of path.
func (r *Revisions) Revision(path string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.base + r.paths[normalizePath(path)]
}

// ETag derives a weak ETag from the path revision and the request variant
// (query string and caller identity).
func (r *Revisions) ETag(req *http.Request, path string) string {
	principal := PrincipalFromContext(req.Context())
	h := fnv.New64a()
	_, _ = h.Write([]byte(req.URL.RawQuery))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(principal.UID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(principal.Role))
	return fmt.Sprintf(`W/"%x-%x"`, r.Revision(path), h.Sum64())
}

// NotModified sets the ETag header for path and reports whether the request
// already holds it, in which case a 304 has been written.
func (r *Revisions) NotModified(w http.ResponseWriter, req *http.Request, path string) bool {
	if r == nil {
		return false
	}
	tag := r.ETag(req, path)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "private, no-cache")
	for _, candidate := range strings.Split(req.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(candidate) == tag {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
