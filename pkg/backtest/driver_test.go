package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/joripage/backtest-dev/pkg/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStrategy emits a fixed order set per timestamp and records what
// each tick's state looked like when it ran.
type scriptedStrategy struct {
	script map[int64]map[string][]Order
	seen   []*MarketState
	err    error
}

func (s *scriptedStrategy) Run(state *MarketState) (map[string][]Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.seen = append(s.seen, state)
	return s.script[state.Timestamp], nil
}

type collectingRecorder struct {
	states []*MarketState
	orders []map[string][]Order
}

func (c *collectingRecorder) RecordTick(state *MarketState, orders map[string][]Order) error {
	c.states = append(c.states, state)
	c.orders = append(c.orders, orders)
	return nil
}

func makeTickStates(times ...int64) ([]int64, map[int64]*MarketState) {
	states := make(map[int64]*MarketState, len(times))
	for _, ts := range times {
		state := NewMarketState(ts)
		state.Listings["X"] = Listing{Symbol: "X", Product: "X", Denomination: "SEASHELLS"}
		depth := NewOrderDepth()
		depth.BuyOrders[10] = 5
		depth.BuyOrders[9] = 3
		depth.SellOrders[11] = 4
		depth.SellOrders[12] = 2
		state.OrderDepths["X"] = depth
		state.Position["X"] = 0
		states[ts] = state
	}
	return times, states
}

func newDriverLedger() *Ledger {
	return NewLedger(100, map[string]int64{"X": 20}, &risk.LogPolicy{})
}

func TestDriverPropagatesFillsOneDelayLater(t *testing.T) {
	times, states := makeTickStates(100, 200, 300)
	strat := &scriptedStrategy{
		script: map[int64]map[string][]Order{
			100: {"X": {{Symbol: "X", Price: 11, Quantity: 4}}},
		},
	}
	driver := NewDriver(times, states, strat, newDriverLedger(), nil)

	require.NoError(t, driver.Run(context.Background()))
	require.Len(t, strat.seen, 3)

	// The fill happened at 100 but is invisible there.
	assert.Empty(t, strat.seen[0].OwnTrades)
	assert.Equal(t, int64(0), strat.seen[0].Position["X"])

	// One settlement delay later both the trade and the position show up.
	require.Len(t, strat.seen[1].OwnTrades["X"], 1)
	fill := strat.seen[1].OwnTrades["X"][0]
	assert.Equal(t, Trade{Symbol: "X", Price: 11, Quantity: 4, Buyer: SelfTag, Timestamp: 100}, fill)
	assert.Equal(t, int64(4), strat.seen[1].Position["X"])

	// At 300 the position carries forward but the stale own-trades list is
	// replaced only by fresh fills, of which there are none.
	assert.Equal(t, int64(4), strat.seen[2].Position["X"])
}

func TestDriverStrategySeesDefensiveCopy(t *testing.T) {
	times, states := makeTickStates(100)
	strat := &scriptedStrategy{}
	driver := NewDriver(times, states, strat, newDriverLedger(), nil)

	require.NoError(t, driver.Run(context.Background()))
	require.Len(t, strat.seen, 1)

	strat.seen[0].OrderDepths["X"].BuyOrders[10] = 9999
	assert.Equal(t, int64(5), states[100].OrderDepths["X"].BuyOrders[10])
}

func TestDriverRecordsEveryTick(t *testing.T) {
	times, states := makeTickStates(100, 200)
	strat := &scriptedStrategy{
		script: map[int64]map[string][]Order{
			200: {"X": {{Symbol: "X", Price: 9, Quantity: -2}}},
		},
	}
	rec := &collectingRecorder{}
	driver := NewDriver(times, states, strat, newDriverLedger(), rec)

	require.NoError(t, driver.Run(context.Background()))
	require.Len(t, rec.states, 2)
	assert.Equal(t, int64(100), rec.states[0].Timestamp)
	assert.Empty(t, rec.orders[0])
	require.Len(t, rec.orders[1]["X"], 1)
	assert.True(t, driver.Done())
}

func TestDriverAbortsOnStrategyError(t *testing.T) {
	times, states := makeTickStates(100, 200)
	wantErr := errors.New("model blew up")
	strat := &scriptedStrategy{err: wantErr}
	driver := NewDriver(times, states, strat, newDriverLedger(), nil)

	err := driver.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.True(t, driver.Done())
}

func TestDriverStopsOnCancelledContext(t *testing.T) {
	times, states := makeTickStates(100, 200)
	strat := &scriptedStrategy{}
	driver := NewDriver(times, states, strat, newDriverLedger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := driver.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, strat.seen)
	assert.True(t, driver.Done())
}

func TestDriverHaltPolicySurfacesBreach(t *testing.T) {
	times, states := makeTickStates(100)
	strat := &scriptedStrategy{
		script: map[int64]map[string][]Order{
			100: {"X": {{Symbol: "X", Price: 12, Quantity: 6}}},
		},
	}
	ledger := NewLedger(100, map[string]int64{"X": 3}, &risk.HaltPolicy{})
	driver := NewDriver(times, states, strat, ledger, nil)

	err := driver.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrPositionLimit)
}
