package strategy

import (
	"fmt"

	"github.com/joripage/backtest-dev/pkg/backtest"
)

// Params carries the knobs shared by the built-in strategies. Individual
// strategies ignore what they do not use.
type Params struct {
	// Fair is a per-instrument fair price override.
	Fair map[string]float64
	// Cutoff is the timestamp after which position-flattening strategies
	// stop quoting and unwind. Zero disables the cutoff.
	Cutoff int64
	// Limits are the per-instrument absolute position limits, used to size
	// orders so a full fill cannot breach them.
	Limits map[string]int64
}

// New builds a strategy by config name.
func New(name string, params Params) (backtest.Strategy, error) {
	switch name {
	case "", "noop":
		return &Noop{}, nil
	case "fairvalue":
		return NewFairValue(params), nil
	case "marketmaker":
		return NewMarketMaker(params), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Noop submits no orders. Useful as a data-inspection run and in tests.
type Noop struct{}

func (s *Noop) Run(state *backtest.MarketState) (map[string][]backtest.Order, error) {
	return map[string][]backtest.Order{}, nil
}
