package httpserver

import (
	"fmt"
	"hash/fnv"
	"sync"
)

// Revalidator versions page paths. A mutation bumps the version of the path
// it affects and of the dashboard at "/", which summarises every listing.
//
// The version only forces a fresh validator for the mutated path; the ETag
// itself is a digest of the rendered page, so any page whose content changed
// gets a new ETag whichever path the change was made from, and validators
// survive restarts only when the content is unchanged.
type Revalidator struct {
	mu       sync.Mutex
	versions map[string]uint64
}

func NewRevalidator() *Revalidator {
	return &Revalidator{versions: make(map[string]uint64)}
}

func (r *Revalidator) Revalidate(path string) {
	if path == "" {
		path = "/"
	}
	r.mu.Lock()
	r.versions[path]++
	if path != "/" {
		r.versions["/"]++
	}
	r.mu.Unlock()
}

func (r *Revalidator) Version(path string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions[path]
}

// ETag is a weak validator of one rendering of path.
func (r *Revalidator) ETag(path string, body []byte) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s\x00%d\x00", path, r.Version(path))
	_, _ = h.Write(body)
	return fmt.Sprintf(`W/"%x"`, h.Sum64())
}
