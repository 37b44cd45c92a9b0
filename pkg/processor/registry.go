package processor

import (
	"strconv"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"

	"bstgroovy/pkg/code"
)

// Registry hands out synthesized local names for one compilation run.
// The counter is shared by every State built on the registry, so names
// are unique across all functions of the run. Call Reset between
// independent runs, never in the middle of one.
type Registry struct {
	mu     sync.Mutex
	next   int
	issued map[uint64][]string // names handed out this run, by fnv1a
	count  int
	hash   func(string) uint64
}

func NewRegistry() *Registry {
	r := &Registry{hash: fnv1a.HashString64}
	r.Reset()
	return r
}

// NewLocal returns a fresh Local named prefix followed by the counter.
// A name already issued under another prefix ("v1"+"1" vs "v"+"11") is
// skipped, so uniqueness holds whatever prefixes the caller mixes.
func (r *Registry) NewLocal(prefix string) *code.Local {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		name := prefix + strconv.Itoa(r.next)
		r.next++
		if r.mark(name) {
			return code.NewLocal(name, code.Unknown)
		}
	}
}

// mark records name and reports whether it was free. Names sharing a
// hash are told apart by comparison.
func (r *Registry) mark(name string) bool {
	h := r.hash(name)
	for _, n := range r.issued[h] {
		if n == name {
			return false
		}
	}
	r.issued[h] = append(r.issued[h], name)
	r.count++
	return true
}

// Reserve marks name as taken so NewLocal never returns it. Used for
// names the program declares itself.
func (r *Registry) Reserve(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mark(name)
}

// Reset starts a new run: the counter goes back to 1 and all issued and
// reserved names are forgotten.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 1
	r.count = 0
	r.issued = make(map[uint64][]string)
}

// Issued returns how many names are currently taken.
func (r *Registry) Issued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
