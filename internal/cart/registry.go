package cart

import "sync"

// Registry hands out one Store per browser session. Stores live for the
// process lifetime; carts are deliberately not persisted.
type Registry struct {
	mu sync.Mutex
	m  map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{m: map[string]*Store{}}
}

func (r *Registry) Get(session string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.m[session]
	if !ok {
		s = NewStore()
		r.m[session] = s
	}
	return s
}
