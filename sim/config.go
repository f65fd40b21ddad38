package sim

import (
	"fmt"
	"math"

	"github.com/tracefec/tracefec/sim/fec"
	"github.com/tracefec/tracefec/sim/trace"
)

// Config groups the transport simulator's constructor parameters (spec.md
// §6 "Configuration surface").
type Config struct {
	LossRate        float64 // probability a sent packet is lost on the wire, default 0.0
	RTT             float64 // seconds; one-way delay is RTT/2, default 0.1
	MaxInflight     int     // per-direction in-flight ceiling, default 20
	Seed            int64   // RNG seed, optional
	ExternalFECRate float64 // fraction of real packets relabeled as dummy before injection, default 0.0
	Injector        fec.Config
}

// DefaultConfig returns the spec's documented defaults for the given
// injector strategy.
func DefaultConfig(strategy trace.Strategy) Config {
	return Config{
		LossRate:    0.0,
		RTT:         0.1,
		MaxInflight: 20,
		Injector:    fec.DefaultConfig(strategy),
	}
}

// Validate rejects out-of-range parameters (spec.md §7 InvalidParameter).
func (c Config) Validate() error {
	if math.IsNaN(c.LossRate) || c.LossRate < 0 || c.LossRate >= 1 {
		return fmt.Errorf("%w: loss_rate must be in [0,1), got %v", trace.ErrInvalidParameter, c.LossRate)
	}
	if c.RTT <= 0 {
		return fmt.Errorf("%w: rtt must be positive, got %v", trace.ErrInvalidParameter, c.RTT)
	}
	if c.MaxInflight <= 0 {
		return fmt.Errorf("%w: max_inflight must be positive, got %d", trace.ErrInvalidParameter, c.MaxInflight)
	}
	if math.IsNaN(c.ExternalFECRate) || c.ExternalFECRate < 0 || c.ExternalFECRate >= 1 {
		return fmt.Errorf("%w: external_fec_rate must be in [0,1), got %v", trace.ErrInvalidParameter, c.ExternalFECRate)
	}
	return c.Injector.Validate()
}
