package trace

import "errors"

// Sentinel error kinds from spec.md §7. The core treats all three as fatal
// at the call boundary: callers wrap one of these with context via %w and
// propagate rather than attempting best-effort recovery.
var (
	// ErrMalformedInput marks a trace line that could not be parsed.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidStrategy marks an unknown FEC strategy tag.
	ErrInvalidStrategy = errors.New("invalid strategy")
	// ErrInvalidParameter marks an out-of-range rate or size configuration value.
	ErrInvalidParameter = errors.New("invalid parameter")
)
