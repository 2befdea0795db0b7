package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/joripage/backtest-dev/pkg/backtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tickState(ts int64, sym string, bids, asks map[float64]int64) *backtest.MarketState {
	state := backtest.NewMarketState(ts)
	depth := backtest.NewOrderDepth()
	for px, sz := range bids {
		depth.BuyOrders[px] = sz
	}
	for px, sz := range asks {
		depth.SellOrders[px] = sz
	}
	state.OrderDepths[sym] = depth
	return state
}

func TestActivityRowLayout(t *testing.T) {
	r := NewReporter(0)

	state := tickState(100, "PEARLS",
		map[float64]int64{10002: 31, 9996: 2},
		map[float64]int64{10004: 31, 10005: 2},
	)
	require.NoError(t, r.RecordTick(state, nil))

	var buf bytes.Buffer
	require.NoError(t, r.WriteActivityLog(&buf))

	sc := bufio.NewScanner(&buf)
	require.True(t, sc.Scan())
	assert.Equal(t, ActivityHeader, sc.Text())

	require.True(t, sc.Scan())
	// Median over {9996, 10002, 10004, 10005} is 10003; empty third levels
	// stay as empty cells, floats always keep one decimal place.
	assert.Equal(t, "0;100;PEARLS;10002.0;31;9996.0;2;;;10004.0;31;10005.0;2;;;10003.0;0.0", sc.Text())
	assert.False(t, sc.Scan())
}

func TestActivityRowFractionalMid(t *testing.T) {
	r := NewReporter(2)

	state := tickState(0, "BANANAS",
		map[float64]int64{4890: 3},
		map[float64]int64{4893: 11},
	)
	require.NoError(t, r.RecordTick(state, nil))

	rows := r.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 4891.5, rows[0].Mid)
	assert.Equal(t, "2;0;BANANAS;4890.0;3;;;;;4893.0;11;;;;;4891.5;0.0", formatActivityRow(rows[0]))
}

func TestPnLMarksPositionToReference(t *testing.T) {
	r := NewReporter(0)

	// Tick 1: nothing settled yet, PnL 0.
	require.NoError(t, r.RecordTick(tickState(100, "PEARLS",
		map[float64]int64{9998: 5}, map[float64]int64{10002: 5}), nil))

	// Tick 2: a settled buy of 4@10000 with position 4; reference is 10000.
	state := tickState(200, "PEARLS",
		map[float64]int64{9998: 5}, map[float64]int64{10002: 5})
	state.OwnTrades["PEARLS"] = []backtest.Trade{
		{Symbol: "PEARLS", Price: 10000, Quantity: 4, Buyer: backtest.SelfTag, Timestamp: 100},
	}
	state.Position["PEARLS"] = 4
	require.NoError(t, r.RecordTick(state, nil))

	rows := r.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "0", rows[0].PnL.String())
	// Cash -40000 plus 4 marked at 10000 nets to zero.
	assert.Equal(t, "0", rows[1].PnL.String())

	// Tick 3: position unchanged, reference moves to 10010.
	state3 := tickState(300, "PEARLS",
		map[float64]int64{10008: 5}, map[float64]int64{10012: 5})
	state3.Position["PEARLS"] = 4
	require.NoError(t, r.RecordTick(state3, nil))
	assert.Equal(t, "40", r.Rows()[2].PnL.String())
}

func TestPnLSellAddsCash(t *testing.T) {
	r := NewReporter(0)

	state := tickState(200, "PEARLS",
		map[float64]int64{9998: 5}, map[float64]int64{10002: 5})
	state.OwnTrades["PEARLS"] = []backtest.Trade{
		{Symbol: "PEARLS", Price: 10000, Quantity: 3, Seller: backtest.SelfTag, Timestamp: 100},
	}
	state.Position["PEARLS"] = -3
	require.NoError(t, r.RecordTick(state, nil))

	pnl := r.PnL()
	assert.Equal(t, "30000", pnl["PEARLS"].String())
}

func TestObservationOnlyInstrumentSkipsActivity(t *testing.T) {
	r := NewReporter(0)

	state := backtest.NewMarketState(100)
	state.OrderDepths["DOLPHIN_SIGHTINGS"] = backtest.NewOrderDepth()
	state.Observations["DOLPHIN_SIGHTINGS"] = 3074
	require.NoError(t, r.RecordTick(state, nil))

	assert.Empty(t, r.Rows(), "no resting levels means no activity row")
	assert.Len(t, r.Records(), 1, "sandbox record still written")
}

func TestSandboxLogIsJSONPerTick(t *testing.T) {
	r := NewReporter(0)
	r.Logger.Printf("fair=%d", 10000)
	r.Logger.Print("done")

	state := tickState(100, "PEARLS",
		map[float64]int64{9998: 5}, map[float64]int64{10002: 5})
	orders := map[string][]backtest.Order{
		"PEARLS": {{Symbol: "PEARLS", Price: 10002, Quantity: 2}},
	}
	require.NoError(t, r.RecordTick(state, orders))

	var buf bytes.Buffer
	require.NoError(t, r.WriteSandboxLog(&buf))

	var rec SandboxRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, int64(100), rec.State.Timestamp)
	require.Len(t, rec.Orders["PEARLS"], 1)
	assert.Equal(t, "fair=10000\ndone\n", rec.Logs)

	// The book itself must survive serialization, price keys included.
	require.Contains(t, rec.State.OrderDepths, "PEARLS")
	assert.Equal(t, int64(5), rec.State.OrderDepths["PEARLS"].BuyOrders[9998])
	assert.Equal(t, int64(5), rec.State.OrderDepths["PEARLS"].SellOrders[10002])
}

func TestTickLoggerDrainsBetweenTicks(t *testing.T) {
	r := NewReporter(0)
	r.Logger.Print("first tick")
	require.NoError(t, r.RecordTick(backtest.NewMarketState(100), nil))
	require.NoError(t, r.RecordTick(backtest.NewMarketState(200), nil))

	recs := r.Records()
	require.Len(t, recs, 2)
	assert.True(t, strings.Contains(recs[0].Logs, "first tick"))
	assert.Empty(t, recs[1].Logs)
}
