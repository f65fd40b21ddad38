package fec

import (
	"math/rand"
	"testing"

	"github.com/tracefec/tracefec/sim/trace"
)

func realPkt(ts float64, length int) *trace.Packet {
	return &trace.Packet{OriginalTS: ts, Length: length}
}

func dummyPkt(ts float64, length int) *trace.Packet {
	return &trace.Packet{OriginalTS: ts, Length: length, Meta: trace.Dummy(0, "")}
}

func TestInjector_StrategyA_AlwaysDummy(t *testing.T) {
	packets := []*trace.Packet{realPkt(0, 300), dummyPkt(0.01, 300), dummyPkt(0.02, 300)}
	if err := Run(packets, DefaultConfig(trace.StrategyA), rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, p := range packets[1:] {
		if p.Meta.Kind != trace.KindDummy {
			t.Errorf("expected dummy under Strategy A, got %+v", p.Meta)
		}
	}
}

func TestInjector_StrategyB_ProtectsCurrentThenPreviousBlock(t *testing.T) {
	// GIVEN block_size=4: 4 reals fill block 0, then a dummy, then 3 more reals
	// start block 1, then a dummy.
	cfg := Config{Strategy: trace.StrategyB, WindowSize: 32, BlockSize: 4}
	packets := []*trace.Packet{
		realPkt(0.00, 300), realPkt(0.01, 300), realPkt(0.02, 300), realPkt(0.03, 300),
		dummyPkt(0.04, 300),
		realPkt(0.05, 300), realPkt(0.06, 300), realPkt(0.07, 300),
		dummyPkt(0.08, 300),
	}
	if err := Run(packets, cfg, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// WHEN the first dummy (right after block 0 closes) is inspected
	first := packets[4].Meta
	// THEN it protects the just-closed block 0 with the full block size
	if first.Kind != trace.KindRepairB || first.BlockID != 0 || first.ProtectedCount != 4 {
		t.Errorf("expected repair-after-close for block 0, got %+v", first)
	}

	// WHEN the second dummy (mid-fill of block 1) is inspected
	second := packets[8].Meta
	// THEN it protects the still-filling block 1 with its partial count
	if second.Kind != trace.KindRepairB || second.BlockID != 1 || second.ProtectedCount != 3 {
		t.Errorf("expected in-progress repair for block 1, got %+v", second)
	}
}

func TestInjector_StrategyB_NoRealYet_EmitsDummy(t *testing.T) {
	cfg := DefaultConfig(trace.StrategyB)
	packets := []*trace.Packet{dummyPkt(0, 300)}
	if err := Run(packets, cfg, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if packets[0].Meta.Kind != trace.KindDummy {
		t.Errorf("expected dummy before any real packet, got %+v", packets[0].Meta)
	}
}

func TestInjector_StrategyC_CoversOnlyBufferedIDs(t *testing.T) {
	cfg := Config{Strategy: trace.StrategyC, WindowSize: 5, BlockSize: 10}
	packets := []*trace.Packet{
		realPkt(0, 300), realPkt(0.01, 300), realPkt(0.02, 300),
		dummyPkt(0.03, 300),
	}
	if err := Run(packets, cfg, rand.New(rand.NewSource(42))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	meta := packets[3].Meta
	if meta.Kind != trace.KindRepairC {
		t.Fatalf("expected repair C, got %+v", meta)
	}
	if len(meta.CoveredIDs) == 0 || len(meta.CoveredIDs) > 3 {
		t.Errorf("expected 1..3 covered ids, got %v", meta.CoveredIDs)
	}
	seen := map[int]bool{}
	for _, id := range meta.CoveredIDs {
		if id < 1 || id > 3 {
			t.Errorf("covered id %d outside sent range [1,3]", id)
		}
		if seen[id] {
			t.Errorf("covered id %d repeated, sampling must be without replacement", id)
		}
		seen[id] = true
	}
}

func TestInjector_StrategyD_WindowCoversTail(t *testing.T) {
	// GIVEN window_size=3 and 6 reals sent, then a dummy
	cfg := Config{Strategy: trace.StrategyD, WindowSize: 3, BlockSize: 10}
	var packets []*trace.Packet
	for i := 0; i < 6; i++ {
		packets = append(packets, realPkt(float64(i)*0.01, 300))
	}
	packets = append(packets, dummyPkt(0.06, 300))

	if err := Run(packets, cfg, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// THEN the window covers [head-window+1, head] = [4,6]
	meta := packets[len(packets)-1].Meta
	if meta.Kind != trace.KindRepairD || meta.StartID != 4 || meta.EndID != 6 {
		t.Errorf("expected RepairD{4,6}, got %+v", meta)
	}
}

func TestInjector_StrategyD_ClampsToOne(t *testing.T) {
	cfg := Config{Strategy: trace.StrategyD, WindowSize: 32, BlockSize: 10}
	packets := []*trace.Packet{realPkt(0, 300), realPkt(0.01, 300), dummyPkt(0.02, 300)}
	if err := Run(packets, cfg, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	meta := packets[2].Meta
	if meta.StartID != 1 || meta.EndID != 2 {
		t.Errorf("expected window clamped to [1,2], got %+v", meta)
	}
}

func TestConfig_Validate_RejectsUnknownStrategyAndBadSizes(t *testing.T) {
	tests := []Config{
		{Strategy: 'Z', WindowSize: 32, BlockSize: 10},
		{Strategy: trace.StrategyB, WindowSize: 0, BlockSize: 10},
		{Strategy: trace.StrategyB, WindowSize: 32, BlockSize: 0},
	}
	for _, cfg := range tests {
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected Validate to reject %+v", cfg)
		}
	}
}
