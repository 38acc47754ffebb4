package core

// DefaultCategories seed an empty registry.
var DefaultCategories = []string{"Food", "Transport", "Entertainment"}

// CategoryRegistry is an insertion-ordered set of category names. Membership
// is case-sensitive and entries are never removed. It is not safe for
// concurrent use; the ledger guards it.
type CategoryRegistry struct {
	names []string
	seen  map[string]struct{}
}

func NewCategoryRegistry(names ...string) *CategoryRegistry {
	r := &CategoryRegistry{seen: make(map[string]struct{})}
	for _, n := range names {
		r.Add(n)
	}
	return r
}

// Add appends name if unseen and reports whether the registry grew.
func (r *CategoryRegistry) Add(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := r.seen[name]; ok {
		return false
	}
	r.seen[name] = struct{}{}
	r.names = append(r.names, name)
	return true
}

func (r *CategoryRegistry) Contains(name string) bool {
	_, ok := r.seen[name]
	return ok
}

// Names returns a copy in insertion order.
func (r *CategoryRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *CategoryRegistry) Len() int { return len(r.names) }
