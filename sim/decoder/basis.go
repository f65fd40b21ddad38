package decoder

import "github.com/bits-and-blooms/bitset"

// equation is a GF(2) row: a non-empty set of currently-unknown sim_ids,
// with coefficients implicitly 1 (spec.md §3). A dense bitset is the
// optimization spec.md §9 calls out as valid "when window_size is small" —
// true for every strategy here (Strategy C/D windows default to 32).
type equation struct {
	bits *bitset.BitSet
}

func newEquation(ids ...int) *equation {
	b := bitset.New(uint(64))
	for _, id := range ids {
		b.Set(uint(id))
	}
	return &equation{bits: b}
}

func (e *equation) isEmpty() bool { return e.bits.None() }

// pivot returns the minimum set sim_id, the equation's key in the basis.
func (e *equation) pivot() (int, bool) {
	i, ok := e.bits.NextSet(0)
	return int(i), ok
}

// xor performs GF(2) row addition (symmetric difference) in place.
func (e *equation) xor(other *equation) {
	e.bits.InPlaceSymmetricDifference(other.bits)
}

func (e *equation) contains(id int) bool { return e.bits.Test(uint(id)) }

func (e *equation) clear(id int) { e.bits.Clear(uint(id)) }

// singleton returns the lone member and true if this equation has exactly
// one unknown remaining.
func (e *equation) singleton() (int, bool) {
	if e.bits.Count() != 1 {
		return 0, false
	}
	i, _ := e.bits.NextSet(0)
	return int(i), true
}

// basis is the decoding basis for one direction: an ordered-by-pivot set of
// equations, kept in reduced row-echelon form (spec.md §3 invariant: each
// equation has a unique minimum element, and for i<j the pivot of equation i
// does not appear in equation j).
type basis struct {
	byPivot map[int]*equation
}

func newBasis() *basis {
	return &basis{byPivot: make(map[int]*equation)}
}

// insert integrates a new row into the basis via pivot-by-minimum-element
// reduction (spec.md §4.2 steps 1-3), then cascades singleton recovery
// (step 4). It returns every sim_id recovered as a result of this insertion.
func (b *basis) insert(row *equation) []int {
	for {
		if row.isEmpty() {
			return b.drainSingletons()
		}
		p, _ := row.pivot()
		existing, ok := b.byPivot[p]
		if !ok {
			b.byPivot[p] = row
			break
		}
		row.xor(existing)
	}

	// Back-substitution: the freshly inserted row may share its pivot's
	// value with other rows that also contain that id.
	p, _ := row.pivot()
	for otherPivot, other := range b.byPivot {
		if otherPivot == p {
			continue
		}
		if other.contains(p) {
			other.xor(row)
		}
	}

	return b.drainSingletons()
}

// drainSingletons repeatedly scans for single-unknown equations, recording
// each such sim_id as recovered, purging it from every equation, and
// discarding equations that become empty — until no singletons remain
// (spec.md §4.2 step 4).
func (b *basis) drainSingletons() []int {
	var recovered []int
	for {
		var solved []int
		for _, eq := range b.byPivot {
			if id, ok := eq.singleton(); ok {
				solved = append(solved, id)
			}
		}
		if len(solved) == 0 {
			return recovered
		}
		for _, id := range solved {
			b.purge(id)
		}
		recovered = append(recovered, solved...)
	}
}

// purge removes id from every equation in the basis (recovery side-effect,
// spec.md §4.2), re-keying equations whose pivot was id and dropping any
// equation that becomes empty. Affected keys are collected before mutating
// the map to avoid modifying it mid-range.
func (b *basis) purge(id int) {
	var affected []int
	for pivot, eq := range b.byPivot {
		if eq.contains(id) {
			affected = append(affected, pivot)
		}
	}
	for _, pivot := range affected {
		eq := b.byPivot[pivot]
		eq.clear(id)
		delete(b.byPivot, pivot)
		if eq.isEmpty() {
			continue
		}
		if newPivot, ok := eq.pivot(); ok {
			b.byPivot[newPivot] = eq
		}
	}
}

// len reports the number of equations currently held, for test assertions.
func (b *basis) len() int { return len(b.byPivot) }
