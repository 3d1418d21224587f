package rules

import "sync/atomic"

// Repository holds the current rule set. Replace swaps the whole
// sequence in one step, so a reader always sees either the previous or
// the new list, never a mix.
type Repository struct {
	rules atomic.Pointer[[]Rule]
}

// NewRepository returns a repository seeded with a copy of initial.
func NewRepository(initial []Rule) *Repository {
	r := &Repository{}
	r.Replace(initial)
	return r
}

// Rules returns the current rule set. The slice is shared and must not
// be modified.
func (r *Repository) Rules() []Rule {
	p := r.rules.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Replace installs a copy of rs as the current rule set.
func (r *Repository) Replace(rs []Rule) {
	cp := make([]Rule, len(rs))
	copy(cp, rs)
	r.rules.Store(&cp)
}

// Len returns the number of rules.
func (r *Repository) Len() int {
	return len(r.Rules())
}
