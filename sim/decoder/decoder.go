// Package decoder implements the online FEC decoder (spec.md §4.2): given an
// arriving repair descriptor and the set of currently-lost real sim_ids, it
// recovers as many lost sim_ids as possible without ever declaring a false
// recovery.
package decoder

import "github.com/tracefec/tracefec/sim/trace"

// LostLookup answers membership queries against the transport simulator's
// lost-packet registry (spec.md §3). The decoder only ever needs to ask "is
// this sim_id currently lost", never to enumerate the whole registry, so the
// simulator can back this with a plain map without exposing its internals.
type LostLookup interface {
	IsLost(simID int) bool
}

// Decoder holds one direction's decoding state: the Strategy B bookkeeping
// (spec.md §3: "a mapping block_id → count of repair symbols received for
// that block") and the GF(2) basis for Strategies C and D. fecCount
// persists across block closures and is never reset.
type Decoder struct {
	blockSize int
	fecCount  map[int]int
	basis     *basis
}

// New constructs a Decoder for one direction. blockSize must match the
// injector's Strategy B configuration so block ranges line up.
func New(blockSize int) *Decoder {
	return &Decoder{
		blockSize: blockSize,
		fecCount:  make(map[int]int),
		basis:     newBasis(),
	}
}

// OnRepair processes an arriving repair descriptor and returns every real
// sim_id recovered as a result (possibly empty, never containing a sim_id
// that was not lost at the moment of recovery — spec.md §8 "No false
// recovery"). Dummy metadata yields no recovery and is a caller error to
// pass in; callers should only invoke OnRepair for IsRepair() metadata.
func (d *Decoder) OnRepair(meta trace.Metadata, lost LostLookup) []int {
	switch meta.Kind {
	case trace.KindRepairB:
		return d.onRepairB(meta, lost)
	case trace.KindRepairC:
		return d.onSparseRepair(meta.CoveredIDs, lost)
	case trace.KindRepairD:
		return d.onWindowRepair(meta.StartID, meta.EndID, lost)
	default:
		return nil
	}
}

// onRepairB implements block-MDS counting (spec.md §4.2). The block's
// sim_id range is [block_id*block_size+1, block_id*block_size+protected_count].
// Redundant repair for an already-covered block still increments fecCount;
// it is never transferred to another block.
func (d *Decoder) onRepairB(meta trace.Metadata, lost LostLookup) []int {
	blockID := meta.BlockID
	d.fecCount[blockID]++

	lo := blockID*d.blockSize + 1
	hi := blockID*d.blockSize + meta.ProtectedCount

	var lostInBlock []int
	for id := lo; id <= hi; id++ {
		if lost.IsLost(id) {
			lostInBlock = append(lostInBlock, id)
		}
	}

	if d.fecCount[blockID] >= len(lostInBlock) {
		return lostInBlock
	}
	return nil
}

// onSparseRepair implements Strategy C recovery: the new equation is the
// intersection of covered_ids with the lost registry.
func (d *Decoder) onSparseRepair(coveredIDs []int, lost LostLookup) []int {
	var unknowns []int
	for _, id := range coveredIDs {
		if lost.IsLost(id) {
			unknowns = append(unknowns, id)
		}
	}
	return d.integrate(unknowns)
}

// onWindowRepair implements Strategy D recovery: the new equation is the
// intersection of [start_id, end_id] with the lost registry.
func (d *Decoder) onWindowRepair(startID, endID int, lost LostLookup) []int {
	var unknowns []int
	for id := startID; id <= endID; id++ {
		if lost.IsLost(id) {
			unknowns = append(unknowns, id)
		}
	}
	return d.integrate(unknowns)
}

// integrate folds a new GF(2) equation into the basis. An empty equation
// (all covered ids already delivered or recovered) is discarded — the
// repair was redundant (spec.md §4.2).
func (d *Decoder) integrate(unknowns []int) []int {
	if len(unknowns) == 0 {
		return nil
	}
	return d.basis.insert(newEquation(unknowns...))
}

// Forget removes sim_id from every GF(2) equation (spec.md §3 invariant:
// recovered or retransmission-delivered ids are purged from the basis).
// Callers must invoke this whenever a lost real packet leaves the registry
// by a path other than FEC recovery (i.e. a retransmission arrival), since
// OnRepair only purges ids it itself recovers.
func (d *Decoder) Forget(simID int) {
	d.basis.purge(simID)
}

// BasisSize reports the number of live equations, for test assertions and
// diagnostics.
func (d *Decoder) BasisSize() int { return d.basis.len() }
