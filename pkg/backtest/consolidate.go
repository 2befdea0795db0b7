package backtest

import "sort"

// consolidateOrders nets a strategy's raw order list for one instrument into
// disjoint buy/sell lists, one entry per price, sorted most aggressive first
// (buys by descending price, sells by ascending price). Prices whose net
// quantity resolves to zero are dropped.
//
// Single pass over the input building price -> net quantity, so duplicate
// and conflicting entries at one price collapse in linear time.
func consolidateOrders(raw []Order) (buys, sells []Order) {
	if len(raw) == 0 {
		return nil, nil
	}

	net := make(map[float64]int64, len(raw))
	firstSeen := make([]Order, 0, len(raw))
	for _, o := range raw {
		if _, ok := net[o.Price]; !ok {
			firstSeen = append(firstSeen, o)
		}
		net[o.Price] += o.Quantity
	}

	for _, o := range firstSeen {
		qty := net[o.Price]
		switch {
		case qty > 0:
			buys = append(buys, Order{Symbol: o.Symbol, Price: o.Price, Quantity: qty})
		case qty < 0:
			sells = append(sells, Order{Symbol: o.Symbol, Price: o.Price, Quantity: qty})
		}
	}

	sort.Slice(buys, func(i, j int) bool { return buys[i].Price > buys[j].Price })
	sort.Slice(sells, func(i, j int) bool { return sells[i].Price < sells[j].Price })
	return buys, sells
}
