package backtest

import (
	"encoding/json"
	"sort"
	"strconv"
)

// SelfTag marks this strategy's side of a fill. Replayed third-party
// trades carry blank buyer/seller tags.
const SelfTag = "SUBMISSION"

// Order is a strategy's desired order for one tick. Quantity > 0 buys,
// Quantity < 0 sells. Orders never outlive the tick they were submitted in.
type Order struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// Trade is an execution record. The matching engine emits sell fills with
// negative Quantity; the ledger normalizes Quantity to a magnitude before
// the trade becomes visible, direction implied by which tag is populated.
type Trade struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Buyer     string  `json:"buyer"`
	Seller    string  `json:"seller"`
	Timestamp int64   `json:"timestamp"`
}

// Listing identifies a tradable instrument.
type Listing struct {
	Symbol       string `json:"symbol"`
	Product      string `json:"product"`
	Denomination string `json:"denomination"`
}

// OrderDepth is one instrument's book snapshot: price -> resting size,
// at most three levels per side, prices strictly positive. Ask sizes are
// stored as positive magnitudes.
type OrderDepth struct {
	BuyOrders  map[float64]int64 `json:"buy_orders"`
	SellOrders map[float64]int64 `json:"sell_orders"`
}

func NewOrderDepth() *OrderDepth {
	return &OrderDepth{
		BuyOrders:  make(map[float64]int64),
		SellOrders: make(map[float64]int64),
	}
}

// orderDepthJSON mirrors OrderDepth with string price keys; encoding/json
// rejects float64-keyed maps.
type orderDepthJSON struct {
	BuyOrders  map[string]int64 `json:"buy_orders"`
	SellOrders map[string]int64 `json:"sell_orders"`
}

func (d *OrderDepth) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderDepthJSON{
		BuyOrders:  stringPrices(d.BuyOrders),
		SellOrders: stringPrices(d.SellOrders),
	})
}

func (d *OrderDepth) UnmarshalJSON(data []byte) error {
	var in orderDepthJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	buys, err := parsePrices(in.BuyOrders)
	if err != nil {
		return err
	}
	sells, err := parsePrices(in.SellOrders)
	if err != nil {
		return err
	}
	d.BuyOrders = buys
	d.SellOrders = sells
	return nil
}

func stringPrices(side map[float64]int64) map[string]int64 {
	out := make(map[string]int64, len(side))
	for px, sz := range side {
		out[strconv.FormatFloat(px, 'f', -1, 64)] = sz
	}
	return out
}

func parsePrices(side map[string]int64) (map[float64]int64, error) {
	out := make(map[float64]int64, len(side))
	for s, sz := range side {
		px, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[px] = sz
	}
	return out, nil
}

// BestBid returns the highest bid price, if any.
func (d *OrderDepth) BestBid() (float64, bool) {
	best, ok := 0.0, false
	for px := range d.BuyOrders {
		if !ok || px > best {
			best, ok = px, true
		}
	}
	return best, ok
}

// BestAsk returns the lowest ask price, if any.
func (d *OrderDepth) BestAsk() (float64, bool) {
	best, ok := 0.0, false
	for px := range d.SellOrders {
		if !ok || px < best {
			best, ok = px, true
		}
	}
	return best, ok
}

// TwoSided reports whether the snapshot has resting liquidity on both sides.
// One-sided instruments are skipped by the matching engine for the tick.
func (d *OrderDepth) TwoSided() bool {
	return len(d.BuyOrders) > 0 && len(d.SellOrders) > 0
}

// BidPrices returns bid prices best-first (descending).
func (d *OrderDepth) BidPrices() []float64 {
	prices := make([]float64, 0, len(d.BuyOrders))
	for px := range d.BuyOrders {
		prices = append(prices, px)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(prices)))
	return prices
}

// AskPrices returns ask prices best-first (ascending).
func (d *OrderDepth) AskPrices() []float64 {
	prices := make([]float64, 0, len(d.SellOrders))
	for px := range d.SellOrders {
		prices = append(prices, px)
	}
	sort.Float64s(prices)
	return prices
}

// MarketState is the externally visible bundle at one timestamp. Position
// and OwnTrades are inherited from a ledger update computed one settlement
// delay earlier, never from the current tick's matching.
type MarketState struct {
	Timestamp    int64                  `json:"timestamp"`
	Listings     map[string]Listing     `json:"listings"`
	OrderDepths  map[string]*OrderDepth `json:"order_depths"`
	OwnTrades    map[string][]Trade     `json:"own_trades"`
	MarketTrades map[string][]Trade     `json:"market_trades"`
	Position     map[string]int64       `json:"position"`
	Observations map[string]float64     `json:"observations"`
}

func NewMarketState(timestamp int64) *MarketState {
	return &MarketState{
		Timestamp:    timestamp,
		Listings:     make(map[string]Listing),
		OrderDepths:  make(map[string]*OrderDepth),
		OwnTrades:    make(map[string][]Trade),
		MarketTrades: make(map[string][]Trade),
		Position:     make(map[string]int64),
		Observations: make(map[string]float64),
	}
}

// Clone returns a deep copy. The driver hands a clone to the strategy so a
// strategy cannot retain mutable references into simulation state.
func (s *MarketState) Clone() *MarketState {
	c := NewMarketState(s.Timestamp)
	for sym, l := range s.Listings {
		c.Listings[sym] = l
	}
	for sym, d := range s.OrderDepths {
		cd := NewOrderDepth()
		for px, sz := range d.BuyOrders {
			cd.BuyOrders[px] = sz
		}
		for px, sz := range d.SellOrders {
			cd.SellOrders[px] = sz
		}
		c.OrderDepths[sym] = cd
	}
	for sym, ts := range s.OwnTrades {
		c.OwnTrades[sym] = append([]Trade(nil), ts...)
	}
	for sym, ts := range s.MarketTrades {
		c.MarketTrades[sym] = append([]Trade(nil), ts...)
	}
	for sym, pos := range s.Position {
		c.Position[sym] = pos
	}
	for sym, obs := range s.Observations {
		c.Observations[sym] = obs
	}
	return c
}
