package backtest

import (
	"testing"

	"github.com/joripage/backtest-dev/pkg/marketdata"
)

func priceRow(ts int64, product string, bids, asks []marketdata.Level, mid float64) marketdata.PriceRow {
	return marketdata.PriceRow{
		Timestamp: ts,
		Product:   product,
		Bids:      bids,
		Asks:      asks,
		Mid:       mid,
	}
}

func TestBuildStatesGroupsByTimestamp(t *testing.T) {
	prices := []marketdata.PriceRow{
		priceRow(0, "PEARLS", []marketdata.Level{{Price: 9998, Size: 5}}, []marketdata.Level{{Price: 10002, Size: 5}}, 10000),
		priceRow(0, "BANANAS", []marketdata.Level{{Price: 4890, Size: 3}}, []marketdata.Level{{Price: 4893, Size: 11}}, 4891.5),
		priceRow(100, "PEARLS", []marketdata.Level{{Price: 9996, Size: 2}}, []marketdata.Level{{Price: 10004, Size: 2}}, 10000),
	}

	times, states := BuildStates(prices, nil, 999900)
	if len(times) != 2 || times[0] != 0 || times[1] != 100 {
		t.Fatalf("expected times [0 100], got %v", times)
	}

	first := states[0]
	if len(first.OrderDepths) != 2 {
		t.Fatalf("expected 2 instruments at t=0, got %d", len(first.OrderDepths))
	}
	if first.OrderDepths["PEARLS"].BuyOrders[9998] != 5 {
		t.Errorf("wrong bid size: %+v", first.OrderDepths["PEARLS"])
	}
	if pos, ok := first.Position["PEARLS"]; !ok || pos != 0 {
		t.Errorf("expected zero position created on first sight, got %v/%v", pos, ok)
	}
	if first.Listings["BANANAS"].Symbol != "BANANAS" {
		t.Errorf("missing listing: %+v", first.Listings)
	}

	second := states[100]
	if len(second.OrderDepths) != 1 {
		t.Errorf("expected only PEARLS at t=100, got %+v", second.OrderDepths)
	}
}

func TestBuildStatesObservationOnlyRow(t *testing.T) {
	prices := []marketdata.PriceRow{
		{Timestamp: 0, Product: "DOLPHIN_SIGHTINGS", Mid: 3074, ObservationOnly: true},
	}

	_, states := BuildStates(prices, nil, 999900)
	state := states[0]
	if _, ok := state.OrderDepths["DOLPHIN_SIGHTINGS"]; ok {
		t.Error("observation-only row must not create a book")
	}
	if state.Observations["DOLPHIN_SIGHTINGS"] != 3074 {
		t.Errorf("expected observation 3074, got %v", state.Observations)
	}
}

func TestBuildStatesAttachesTradesExactly(t *testing.T) {
	prices := []marketdata.PriceRow{
		priceRow(100, "PEARLS", []marketdata.Level{{Price: 9998, Size: 5}}, []marketdata.Level{{Price: 10002, Size: 5}}, 10000),
	}
	trades := []marketdata.TradeRow{
		{Timestamp: 100, Symbol: "PEARLS", Price: 10000, Quantity: 3},
		{Timestamp: 150, Symbol: "PEARLS", Price: 10001, Quantity: 2},
	}

	_, states := BuildStates(prices, trades, 999900)
	got := states[100].MarketTrades["PEARLS"]
	if len(got) != 1 {
		t.Fatalf("expected exactly the matching trade, got %+v", got)
	}
	want := Trade{Symbol: "PEARLS", Price: 10000, Quantity: 3, Timestamp: 100}
	if got[0] != want {
		t.Errorf("expected %+v, got %+v", want, got[0])
	}
}

func TestBuildStatesHonorsTimeLimit(t *testing.T) {
	prices := []marketdata.PriceRow{
		priceRow(100, "PEARLS", []marketdata.Level{{Price: 9998, Size: 5}}, nil, 10000),
		priceRow(200, "PEARLS", []marketdata.Level{{Price: 9998, Size: 5}}, nil, 10000),
	}

	times, _ := BuildStates(prices, nil, 100)
	if len(times) != 1 || times[0] != 100 {
		t.Fatalf("expected only t=100, got %v", times)
	}
}
