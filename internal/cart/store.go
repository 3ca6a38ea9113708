package cart

import "sync"

// Item is one cart line: a copied product reference plus a quantity, which
// is always at least 1. A line driven to zero is removed, never kept.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Product is the slice of a catalog record the cart copies on add.
type Product struct {
	ID    string
	Name  string
	Price float64
	Image string
}

// Store is the single source of truth for one shopping cart. All mutation
// goes through its methods, each atomic under the lock; consumers never
// touch the items directly.
type Store struct {
	mu      sync.RWMutex
	items   []Item
	open    bool
	subs    map[int]chan struct{}
	nextSub int
}

func NewStore() *Store {
	return &Store{subs: map[int]chan struct{}{}}
}

// Add bumps the quantity when the product is already in the cart, otherwise
// appends a new line with quantity 1. Insertion order is kept for display.
func (s *Store) Add(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notifyLocked()

	for i := range s.items {
		if s.items[i].ID == p.ID {
			s.items[i].Quantity++
			return
		}
	}

	s.items = append(s.items, Item{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	})
}

// Remove deletes the line with the given id regardless of quantity. Absent
// ids are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.notifyLocked()
			return
		}
	}
}

// SetQuantity sets the line's quantity; zero or negative removes the line.
// Absent ids are a no-op.
func (s *Store) SetQuantity(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if quantity <= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity = quantity
		}
		s.notifyLocked()
		return
	}
}

// Total is derived state, computed fresh on every call.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, it := range s.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Count is the sum of all line quantities, the header badge number.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Open() {
	s.setOpen(true)
}

func (s *Store) Close() {
	s.setOpen(false)
}

func (s *Store) setOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open == open {
		return
	}
	s.open = open
	s.notifyLocked()
}

func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Subscribe registers an observer. The returned channel receives a signal
// after every state change; the cancel func detaches it. Notification is
// best-effort: a subscriber that has not drained its channel coalesces
// signals instead of blocking mutations.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
