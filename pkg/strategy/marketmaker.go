package strategy

import (
	"math"

	"github.com/joripage/backtest-dev/pkg/backtest"
)

const (
	emaAlpha       = 0.3
	positionOffset = 0.075
)

// MarketMaker quotes around a size-weighted fair price smoothed with an
// exponential moving average, skewed against the current position so
// inventory mean-reverts. Crossing quotes are hit outright; otherwise it
// posts one level inside fair on both sides, sized to the remaining
// position limit.
//
// All cross-tick signal state lives on the struct, so two simulation runs
// with separate MarketMaker values can never interfere.
type MarketMaker struct {
	limits map[string]int64
	ema    map[string]float64
}

func NewMarketMaker(params Params) *MarketMaker {
	return &MarketMaker{
		limits: params.Limits,
		ema:    make(map[string]float64),
	}
}

func (s *MarketMaker) Run(state *backtest.MarketState) (map[string][]backtest.Order, error) {
	result := make(map[string][]backtest.Order)

	for sym, depth := range state.OrderDepths {
		if !depth.TwoSided() {
			continue
		}

		fair := s.smoothedFair(sym, weightedFair(depth))
		position := state.Position[sym]
		fair -= positionOffset * float64(position)

		limit := s.limits[sym]
		maxLong := limit - position
		maxShort := limit + position
		if limit == 0 {
			// Unlimited instruments still get a sane default clip.
			maxLong, maxShort = 20, 20
		}

		var orders []backtest.Order
		bestBid, _ := depth.BestBid()
		bestAsk, _ := depth.BestAsk()

		if maxLong > 0 {
			buyPx := math.Floor(fair) - 1
			if bestAsk <= fair {
				buyPx = bestAsk
			}
			orders = append(orders, backtest.Order{Symbol: sym, Price: buyPx, Quantity: maxLong})
		}
		if maxShort > 0 {
			sellPx := math.Ceil(fair) + 1
			if bestBid >= fair {
				sellPx = bestBid
			}
			orders = append(orders, backtest.Order{Symbol: sym, Price: sellPx, Quantity: -maxShort})
		}

		if len(orders) > 0 {
			result[sym] = orders
		}
	}

	return result, nil
}

// weightedFair is the size-weighted price over every resting level.
func weightedFair(depth *backtest.OrderDepth) float64 {
	var notional, size float64
	for px, sz := range depth.BuyOrders {
		notional += px * float64(sz)
		size += float64(sz)
	}
	for px, sz := range depth.SellOrders {
		notional += px * float64(sz)
		size += float64(sz)
	}
	return notional / size
}

func (s *MarketMaker) smoothedFair(sym string, fair float64) float64 {
	prev, ok := s.ema[sym]
	if !ok {
		s.ema[sym] = fair
		return fair
	}
	next := emaAlpha*fair + (1-emaAlpha)*prev
	s.ema[sym] = next
	return next
}
