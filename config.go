package trellis

import (
	"time"

	"github.com/xraph/trellis/capability"
)

// Config holds configuration for the Trellis engine.
type Config struct {
	// OpTimeout bounds every engine operation via a context deadline.
	// Zero means no per-operation timeout. Defaults to 5s.
	OpTimeout time.Duration `json:"op_timeout,omitempty"`

	// BaselineGrants are the capabilities granted to a member when they
	// accept an invite. Defaults to capability.Baseline().
	BaselineGrants []capability.Capability `json:"baseline_grants,omitempty"`

	// RestrictFullControl rejects toggles that target the full-control
	// capability, so full control can only ever be held by the owner.
	// Defaults to false: full-control is delegable like any other
	// capability.
	RestrictFullControl bool `json:"restrict_full_control,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		OpTimeout:      5 * time.Second,
		BaselineGrants: capability.Baseline(),
	}
}

func (c Config) baselineGrants() []capability.Capability {
	if c.BaselineGrants != nil {
		return c.BaselineGrants
	}
	return capability.Baseline()
}
