package backtest

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestOrderDepthJSONRoundTrip(t *testing.T) {
	depth := NewOrderDepth()
	depth.BuyOrders[10002] = 31
	depth.BuyOrders[9996.5] = 2
	depth.SellOrders[10004] = 31

	data, err := json.Marshal(depth)
	if err != nil {
		t.Fatalf("marshal book: %v", err)
	}
	if !strings.Contains(string(data), `"9996.5":2`) {
		t.Errorf("expected stringified price keys, got %s", data)
	}

	got := NewOrderDepth()
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatalf("unmarshal book: %v", err)
	}
	if got.BuyOrders[10002] != 31 || got.BuyOrders[9996.5] != 2 {
		t.Errorf("bids did not survive round trip: %+v", got.BuyOrders)
	}
	if got.SellOrders[10004] != 31 {
		t.Errorf("asks did not survive round trip: %+v", got.SellOrders)
	}
}

func TestMarketStateJSONIncludesBook(t *testing.T) {
	state := NewMarketState(100)
	depth := NewOrderDepth()
	depth.BuyOrders[9998] = 5
	depth.SellOrders[10002] = 5
	state.OrderDepths["PEARLS"] = depth

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal state with book: %v", err)
	}

	var got MarketState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if got.OrderDepths["PEARLS"].BuyOrders[9998] != 5 {
		t.Errorf("book lost in serialization: %+v", got.OrderDepths["PEARLS"])
	}
}
