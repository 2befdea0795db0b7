package risk

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrPositionLimit is returned by the halt policy when a fill would push a
// position past its configured absolute limit.
var ErrPositionLimit = errors.New("position limit violation")

// LimitPolicy decides what happens to a fill whose candidate position would
// breach the configured absolute limit. Apply receives the signed fill
// quantity and the position before the fill, and returns the quantity that
// is allowed to stand (possibly unchanged, reduced, or zero).
type LimitPolicy interface {
	Name() string
	Apply(symbol string, fill, position, limit int64) (int64, error)
}

// FromName maps a config string to a policy. Unknown names are an error so
// a typo in the config cannot silently disable limit handling.
func FromName(name string) (LimitPolicy, error) {
	switch name {
	case "", "log":
		return &LogPolicy{}, nil
	case "clip":
		return &ClipPolicy{}, nil
	case "halt":
		return &HaltPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown breach policy %q", name)
	}
}

// LogPolicy reports the breach and lets the fill stand. This mirrors the
// audit-only behavior the simulation started with.
type LogPolicy struct{}

func (p *LogPolicy) Name() string { return "log" }

func (p *LogPolicy) Apply(symbol string, fill, position, limit int64) (int64, error) {
	zap.S().Warnf("illegal trade, %s position %d would exceed limit %d", symbol, position+fill, limit)
	return fill, nil
}

// ClipPolicy truncates the fill so the resulting position lands exactly on
// the limit. A fill clipped to zero is dropped by the ledger.
type ClipPolicy struct{}

func (p *ClipPolicy) Name() string { return "clip" }

func (p *ClipPolicy) Apply(symbol string, fill, position, limit int64) (int64, error) {
	allowed := fill
	if fill > 0 {
		if room := limit - position; allowed > room {
			allowed = max64(room, 0)
		}
	} else {
		if room := -limit - position; allowed < room {
			allowed = min64(room, 0)
		}
	}
	if allowed != fill {
		zap.S().Warnf("clip %s fill %d to %d at position %d, limit %d", symbol, fill, allowed, position, limit)
	}
	return allowed, nil
}

// HaltPolicy aborts the run on the first breach.
type HaltPolicy struct{}

func (p *HaltPolicy) Name() string { return "halt" }

func (p *HaltPolicy) Apply(symbol string, fill, position, limit int64) (int64, error) {
	return 0, fmt.Errorf("%w: %s position %d exceeds limit %d", ErrPositionLimit, symbol, position+fill, limit)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
