// Package fec implements the per-direction FEC injector (spec.md §4.1): the
// state machine that decides, for every dummy slot in a scheduled trace,
// what repair-coding descriptor to attach under one of four strategies.
package fec

import (
	"fmt"
	"math/rand"

	"github.com/tracefec/tracefec/sim/trace"
)

// Config holds the injector's construction-time parameters (spec.md §6).
type Config struct {
	Strategy   trace.Strategy
	WindowSize int // Strategy C/D window (default 32)
	BlockSize  int // Strategy B block size (default 10)
}

// DefaultConfig returns the spec's documented defaults with the given strategy.
func DefaultConfig(strategy trace.Strategy) Config {
	return Config{Strategy: strategy, WindowSize: 32, BlockSize: 10}
}

// Validate enforces spec.md §7's InvalidStrategy/InvalidParameter taxonomy.
func (c Config) Validate() error {
	switch c.Strategy {
	case trace.StrategyA, trace.StrategyB, trace.StrategyC, trace.StrategyD:
	default:
		return fmt.Errorf("%w: fec strategy %q", trace.ErrInvalidStrategy, string(c.Strategy))
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be > 0, got %d", trace.ErrInvalidParameter, c.WindowSize)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size must be > 0, got %d", trace.ErrInvalidParameter, c.BlockSize)
	}
	return nil
}

// directionState is the per-strategy encoding-side bookkeeping of spec.md §3
// for a single direction. Only the fields relevant to cfg.Strategy are used.
type directionState struct {
	// Strategy B.
	currentBlockID       int
	packetsInCurrentBlock int

	// Strategy C.
	fifo *simIDFIFO

	// Strategy D.
	headID int // 0 means "no real packet sent yet"
}

// Injector is a per-direction-pair state machine. It is constructed once per
// trace (spec.md §3 Lifecycle: "Injector state is created at the start of a
// trace and discarded at its end") and driven in schedule order by Run.
type Injector struct {
	cfg       Config
	rng       *rand.Rand
	state     [2]directionState // indexed by trace.Direction
	nextSimID [2]int            // per-direction sim_id counter, mirrors the simulator's
}

// New constructs an Injector. rng supplies the Strategy C degree/sample
// draws; spec.md §5 requires these to be an independent stream from the
// simulator's loss/retransmission draws, so callers pass a dedicated *rand.Rand.
func New(cfg Config, rng *rand.Rand) (*Injector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	inj := &Injector{cfg: cfg, rng: rng}
	for d := range inj.state {
		inj.state[d].fifo = newSimIDFIFO(cfg.WindowSize)
		inj.state[d].headID = 0
	}
	return inj, nil
}

// ProcessReal updates the encoding-side state for direction d after a real
// packet with the given sim_id has been sent.
func (inj *Injector) ProcessReal(simID int, d trace.Direction) {
	st := &inj.state[d]
	switch inj.cfg.Strategy {
	case trace.StrategyB:
		st.packetsInCurrentBlock++
		if st.packetsInCurrentBlock >= inj.cfg.BlockSize {
			st.currentBlockID++
			st.packetsInCurrentBlock = 0
		}
	case trace.StrategyC:
		st.fifo.push(simID)
	case trace.StrategyD:
		st.headID = simID
	}
}

// GenerateRepair produces the metadata descriptor for the next dummy slot in
// direction d, per the strategy's rules in spec.md §4.1.
func (inj *Injector) GenerateRepair(d trace.Direction) trace.Metadata {
	st := &inj.state[d]
	switch inj.cfg.Strategy {
	case trace.StrategyA:
		return trace.Dummy(trace.StrategyA, "")

	case trace.StrategyB:
		if st.packetsInCurrentBlock > 0 {
			return trace.RepairB(st.currentBlockID, st.packetsInCurrentBlock)
		}
		if st.currentBlockID > 0 {
			return trace.RepairB(st.currentBlockID-1, inj.cfg.BlockSize)
		}
		return trace.Dummy(trace.StrategyB, "empty block")

	case trace.StrategyC:
		if st.fifo.len() == 0 {
			return trace.Dummy(trace.StrategyC, "empty buffer")
		}
		buf := st.fifo.snapshot()
		degree := 1 + inj.rng.Intn(len(buf))
		covered := sampleDistinct(inj.rng, buf, degree)
		return trace.RepairC(covered)

	case trace.StrategyD:
		if st.headID == 0 {
			return trace.Dummy(trace.StrategyD, "no data yet")
		}
		start := max(1, st.headID-inj.cfg.WindowSize+1)
		return trace.RepairD(start, st.headID)

	default:
		return trace.Dummy(inj.cfg.Strategy, "unknown strategy")
	}
}

// sampleDistinct draws degree distinct elements from buf uniformly without
// replacement via a partial Fisher-Yates shuffle over a scratch copy, so the
// source buffer (the FIFO's live backing array) is never mutated.
func sampleDistinct(rng *rand.Rand, buf []int, degree int) []int {
	scratch := make([]int, len(buf))
	copy(scratch, buf)
	for i := 0; i < degree; i++ {
		j := i + rng.Intn(len(scratch)-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	out := make([]int, degree)
	copy(out, scratch[:degree])
	return out
}

// Run applies the injector, in place, to every packet of a scheduled trace
// (spec.md §2 composition: the injector runs first, offline, over the
// scheduled trace to produce an annotated trace). Real packets are assigned
// a provisional per-direction sim_id by simple schedule-order counting —
// the same dense, contiguous, first-send-order assignment the transport
// simulator performs later (spec.md §3), since nothing upstream of first
// send reorders packets within a direction. Non-real packets have their
// Meta overwritten with the strategy's descriptor.
func Run(packets []*trace.Packet, cfg Config, rng *rand.Rand) error {
	inj, err := New(cfg, rng)
	if err != nil {
		return err
	}
	for _, p := range packets {
		d := p.Direction()
		if p.IsReal() {
			inj.nextSimID[d]++
			p.SimID = inj.nextSimID[d]
			inj.ProcessReal(p.SimID, d)
			continue
		}
		p.Meta = inj.GenerateRepair(d)
	}
	return nil
}
