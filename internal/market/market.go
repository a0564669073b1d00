package market

import "math/rand"

// Market is an in-process directory of instruments keyed by issuer. The
// model owns one market per instrument kind; there is no global registry.
// Iteration order follows issuer registration order so runs with the same
// seed replay identically.
type Market[I comparable, T comparable] struct {
	rng     *rand.Rand
	issuers []I
	offers  map[I][]T
}

func New[I comparable, T comparable](rng *rand.Rand) *Market[I, T] {
	return &Market[I, T]{
		rng:    rng,
		offers: make(map[I][]T),
	}
}

// Register lists items under an issuer, appending to any existing offers.
// Items already listed by that issuer are skipped.
func (m *Market[I, T]) Register(issuer I, items ...T) {
	offers, known := m.offers[issuer]
	if !known {
		m.issuers = append(m.issuers, issuer)
	}
	for _, item := range items {
		if !contains(offers, item) {
			offers = append(offers, item)
		}
	}
	m.offers[issuer] = offers
}

// Deregister removes the given items from an issuer's offers; with no items
// it removes the issuer entirely.
func (m *Market[I, T]) Deregister(issuer I, items ...T) {
	offers, known := m.offers[issuer]
	if !known {
		return
	}
	if len(items) == 0 {
		offers = nil
	} else {
		kept := offers[:0]
		for _, offer := range offers {
			if !contains(items, offer) {
				kept = append(kept, offer)
			}
		}
		offers = kept
	}
	if len(offers) == 0 {
		delete(m.offers, issuer)
		for i, id := range m.issuers {
			if id == issuer {
				m.issuers = append(m.issuers[:i], m.issuers[i+1:]...)
				break
			}
		}
		return
	}
	m.offers[issuer] = offers
}

func (m *Market[I, T]) Issuers() []I {
	out := make([]I, len(m.issuers))
	copy(out, m.issuers)
	return out
}

// All returns every listed item in registration order.
func (m *Market[I, T]) All() []T {
	var out []T
	for _, issuer := range m.issuers {
		out = append(out, m.offers[issuer]...)
	}
	return out
}

func (m *Market[I, T]) Len() int {
	n := 0
	for _, offers := range m.offers {
		n += len(offers)
	}
	return n
}

// Sample draws up to k distinct items using the model's random source.
func (m *Market[I, T]) Sample(k int) []T {
	all := m.All()
	if k >= len(all) {
		return all
	}
	if k <= 0 {
		return nil
	}
	m.rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	return all[:k]
}

// Search returns every listed item satisfying the predicate.
func (m *Market[I, T]) Search(pred func(T) bool) []T {
	var out []T
	for _, item := range m.All() {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func contains[T comparable](items []T, target T) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
