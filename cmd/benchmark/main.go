package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/joripage/backtest-dev/pkg/backtest"
	"github.com/joripage/backtest-dev/pkg/risk"
	"github.com/joripage/backtest-dev/pkg/strategy"
)

const (
	numTicks = 100_000
	midPrice = 10_000.0
	maxDrift = 50.0
	maxSize  = 40
)

func randomState(ts int64) *backtest.MarketState {
	state := backtest.NewMarketState(ts)
	state.Listings["ABC"] = backtest.Listing{Symbol: "ABC", Product: "ABC", Denomination: "ABC"}

	mid := midPrice + (rand.Float64()*2-1)*maxDrift
	depth := backtest.NewOrderDepth()
	for i := 1; i <= 3; i++ {
		depth.BuyOrders[float64(int(mid))-float64(i)] = int64(rand.Intn(maxSize) + 1)
		depth.SellOrders[float64(int(mid))+float64(i)] = int64(rand.Intn(maxSize) + 1)
	}
	state.OrderDepths["ABC"] = depth
	state.Position["ABC"] = 0

	if rand.Intn(2) == 0 {
		state.MarketTrades["ABC"] = []backtest.Trade{{
			Symbol:    "ABC",
			Price:     mid + (rand.Float64()*2 - 1),
			Quantity:  int64(rand.Intn(maxSize) + 1),
			Timestamp: ts,
		}}
	}
	return state
}

func main() {
	times := make([]int64, 0, numTicks)
	states := make(map[int64]*backtest.MarketState, numTicks)
	for i := 0; i < numTicks; i++ {
		ts := int64(i) * 100
		times = append(times, ts)
		states[ts] = randomState(ts)
	}

	ledger := backtest.NewLedger(100, map[string]int64{"ABC": 20}, &risk.LogPolicy{})
	strat := strategy.NewMarketMaker(strategy.Params{Limits: map[string]int64{"ABC": 20}})
	driver := backtest.NewDriver(times, states, strat, ledger, nil)

	start := time.Now()
	if err := driver.Run(context.Background()); err != nil {
		panic(err)
	}
	elapsed := time.Since(start)

	fmt.Println("--------")
	fmt.Printf("Total Ticks : %d\n", numTicks)
	fmt.Printf("Time Taken  : %s\n", elapsed)
	fmt.Printf("Ticks/sec   : %.0f\n", float64(numTicks)/elapsed.Seconds())
	for _, p := range ledger.Positions() {
		fmt.Printf("Position %s : %d\n", p.Symbol, p.Position)
	}
}
