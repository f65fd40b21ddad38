package fec

import (
	"math/rand"

	"github.com/tracefec/tracefec/sim/trace"
)

// ApplyExternalFECRate relabels a fraction of real packets as artificial
// dummies before the trace reaches Run, recovering the upstream-driver
// behavior spec.md §4.1 calls out in its closing note: "upstream schedulers
// may also inject additional repair slots by replacing a fraction of real
// packets with artificial dummies (input to the injector)." A relabeled
// packet is excluded from Conservation-of-reals accounting and instead
// competes for repair slots like any other dummy. rate must be in [0,1).
func ApplyExternalFECRate(packets []*trace.Packet, rate float64, rng *rand.Rand) {
	if rate <= 0 {
		return
	}
	for _, p := range packets {
		if p.IsReal() && rng.Float64() < rate {
			p.Meta = trace.Dummy(0, "external-fec-relabel")
		}
	}
}
