package escs

import "sort"

// procTimeMultiset is remainingProcTimeCounts: a multiset mapping
// processing time -> remaining count, iterated in a deterministic
// (ascending value) order so a given seed reproduces the same branch
// sequence.
type procTimeMultiset struct {
	counts map[int]int
	order  []int // sorted distinct values
}

func newProcTimeMultiset(pts []int) *procTimeMultiset {
	m := &procTimeMultiset{counts: make(map[int]int)}
	for _, p := range pts {
		m.counts[p]++
	}
	m.rebuildOrder()
	return m
}

func (m *procTimeMultiset) rebuildOrder() {
	keys := make([]int, 0, len(m.counts))
	for k := range m.counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	m.order = keys
}

func (m *procTimeMultiset) values() []int {
	out := make([]int, 0)
	for _, k := range m.order {
		for i := 0; i < m.counts[k]; i++ {
			out = append(out, k)
		}
	}
	return out
}

func (m *procTimeMultiset) total() int {
	s := 0
	for k, c := range m.counts {
		s += k * c
	}
	return s
}

func (m *procTimeMultiset) count(v int) int { return m.counts[v] }

func (m *procTimeMultiset) decrement(v int) { m.counts[v]-- }
func (m *procTimeMultiset) increment(v int) { m.counts[v]++ }

// distinctValues returns a stable snapshot of the distinct values present,
// for iterating while counts are concurrently decremented/incremented.
func (m *procTimeMultiset) distinctValues() []int {
	return append([]int(nil), m.order...)
}
