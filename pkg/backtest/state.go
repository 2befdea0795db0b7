package backtest

import (
	"sort"

	"github.com/joripage/backtest-dev/pkg/marketdata"
	"go.uber.org/zap"
)

// BuildStates assembles one MarketState per timestamp out of the loader's
// rows. Rows past timeLimit were already truncated by the loader; the guard
// here keeps callers honest when they assemble rows themselves.
//
// The first time an instrument appears its position/own-trades/market-trades
// sub-maps are created empty; the book snapshot is overwritten per tick;
// replayed trades attach to the state whose timestamp matches exactly.
func BuildStates(prices []marketdata.PriceRow, trades []marketdata.TradeRow, timeLimit int64) ([]int64, map[int64]*MarketState) {
	states := make(map[int64]*MarketState)

	for _, row := range prices {
		if row.Timestamp > timeLimit {
			break
		}
		state, ok := states[row.Timestamp]
		if !ok {
			state = NewMarketState(row.Timestamp)
			states[row.Timestamp] = state
		}

		state.Listings[row.Product] = Listing{
			Symbol:       row.Product,
			Product:      row.Product,
			Denomination: row.Product,
		}

		if row.ObservationOnly {
			state.Observations[row.Product] = row.Mid
			continue
		}

		depth := NewOrderDepth()
		for _, lvl := range row.Bids {
			depth.BuyOrders[lvl.Price] = lvl.Size
		}
		for _, lvl := range row.Asks {
			depth.SellOrders[lvl.Price] = lvl.Size
		}
		state.OrderDepths[row.Product] = depth

		if _, ok := state.Position[row.Product]; !ok {
			state.Position[row.Product] = 0
			state.OwnTrades[row.Product] = []Trade{}
			state.MarketTrades[row.Product] = []Trade{}
		}
	}

	for _, row := range trades {
		if row.Timestamp > timeLimit {
			break
		}
		state, ok := states[row.Timestamp]
		if !ok {
			zap.S().Warnf("trade at %d has no matching price tick, dropped", row.Timestamp)
			continue
		}
		state.MarketTrades[row.Symbol] = append(state.MarketTrades[row.Symbol], Trade{
			Symbol:    row.Symbol,
			Price:     row.Price,
			Quantity:  row.Quantity,
			Buyer:     "",
			Seller:    "",
			Timestamp: row.Timestamp,
		})
	}

	times := make([]int64, 0, len(states))
	for ts := range states {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	return times, states
}
