package strategy

import (
	"github.com/joripage/backtest-dev/pkg/backtest"
)

// FairValue trades instruments with a configured fair price: it lifts asks
// quoted below fair and hits bids quoted above fair, then flattens whatever
// position is left once the cutoff timestamp passes.
type FairValue struct {
	fair   map[string]float64
	cutoff int64
	limits map[string]int64
}

func NewFairValue(params Params) *FairValue {
	return &FairValue{
		fair:   params.Fair,
		cutoff: params.Cutoff,
		limits: params.Limits,
	}
}

func (s *FairValue) Run(state *backtest.MarketState) (map[string][]backtest.Order, error) {
	result := make(map[string][]backtest.Order)

	for sym, depth := range state.OrderDepths {
		fair, ok := s.fair[sym]
		if !ok {
			continue
		}

		var orders []backtest.Order
		if s.cutoff == 0 || state.Timestamp < s.cutoff {
			orders = s.alphaTrade(state, sym, depth, fair)
		} else {
			orders = s.flatten(state, sym, depth)
		}
		if len(orders) > 0 {
			result[sym] = orders
		}
	}

	return result, nil
}

func (s *FairValue) alphaTrade(state *backtest.MarketState, sym string, depth *backtest.OrderDepth, fair float64) []backtest.Order {
	var orders []backtest.Order
	position := state.Position[sym]
	limit := s.limits[sym]

	if ask, ok := depth.BestAsk(); ok && ask < fair {
		qty := depth.SellOrders[ask]
		if limit > 0 {
			qty = minQty(qty, limit-position)
		}
		if qty > 0 {
			orders = append(orders, backtest.Order{Symbol: sym, Price: ask, Quantity: qty})
		}
	}

	if bid, ok := depth.BestBid(); ok && bid > fair {
		qty := depth.BuyOrders[bid]
		if limit > 0 {
			qty = minQty(qty, limit+position)
		}
		if qty > 0 {
			orders = append(orders, backtest.Order{Symbol: sym, Price: bid, Quantity: -qty})
		}
	}

	return orders
}

// flatten unwinds the remaining position against the touch.
func (s *FairValue) flatten(state *backtest.MarketState, sym string, depth *backtest.OrderDepth) []backtest.Order {
	position := state.Position[sym]
	if position == 0 {
		return nil
	}

	if position > 0 {
		if bid, ok := depth.BestBid(); ok {
			return []backtest.Order{{Symbol: sym, Price: bid, Quantity: -position}}
		}
		return nil
	}
	if ask, ok := depth.BestAsk(); ok {
		return []backtest.Order{{Symbol: sym, Price: ask, Quantity: -position}}
	}
	return nil
}

func minQty(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
