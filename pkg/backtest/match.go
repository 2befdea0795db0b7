package backtest

import "sort"

// matchTick crosses one tick's consolidated orders against the snapshot
// ladders and the replayed third-party trades of every instrument, in two
// phases:
//
// Phase A: aggressive crossing. Buys walk the ask ladder while the order
// price covers the best remaining ask, sells walk the bid ladder
// symmetrically. Fills print at the resting side's price.
//
// Phase B: passive fills. Each replayed trade is classified against the
// pre-Phase-A best bid/ask: closer to the bid means seller-initiated flow
// that can lift still-resting buy orders, closer to the ask (ties included)
// means buyer-initiated flow that can hit resting sells. An order keeps
// queue priority only while it improves on the current best of its side;
// fills print at the order's price.
//
// Instruments without both a resting bid and a resting ask are skipped
// entirely for the tick. Returned trades are in generation order.
func matchTick(orders map[string][]Order, depths map[string]*OrderDepth, marketTrades map[string][]Trade, timestamp int64) []Trade {
	var trades []Trade

	symbols := make([]string, 0, len(orders))
	for sym := range orders {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		depth, ok := depths[sym]
		if !ok || !depth.TwoSided() {
			continue
		}

		bidLadder := newLadder(depth.BuyOrders, true)
		askLadder := newLadder(depth.SellOrders, false)
		origBestBid := bidLadder.best()
		origBestAsk := askLadder.best()

		buys, sells := consolidateOrders(orders[sym])

		for i := range buys {
			order := &buys[i]
			for order.Quantity > 0 && !askLadder.empty() && order.Price >= askLadder.best() {
				sz := min64(askLadder.bestSize(), order.Quantity)
				trades = append(trades, Trade{
					Symbol:    sym,
					Price:     askLadder.best(),
					Quantity:  sz,
					Buyer:     SelfTag,
					Timestamp: timestamp,
				})
				order.Quantity -= sz
				askLadder.consume(sz)
			}
		}

		for i := range sells {
			order := &sells[i]
			for order.Quantity < 0 && !bidLadder.empty() && order.Price <= bidLadder.best() {
				sz := min64(bidLadder.bestSize(), -order.Quantity)
				trades = append(trades, Trade{
					Symbol:    sym,
					Price:     bidLadder.best(),
					Quantity:  -sz,
					Seller:    SelfTag,
					Timestamp: timestamp,
				})
				order.Quantity += sz
				bidLadder.consume(sz)
			}
		}

		// Best prices after aggressive crossing bound queue priority for
		// passive fills; an exhausted side falls back to its original best.
		curBestBid := origBestBid
		if !bidLadder.empty() {
			curBestBid = bidLadder.best()
		}
		curBestAsk := origBestAsk
		if !askLadder.empty() {
			curBestAsk = askLadder.best()
		}

		replayed := append([]Trade(nil), marketTrades[sym]...)
		sort.Slice(replayed, func(i, j int) bool { return replayed[i].Price < replayed[j].Price })

		for _, mt := range replayed {
			remaining := mt.Quantity
			if remaining <= 0 {
				continue
			}
			if mt.Price-origBestBid < origBestAsk-mt.Price {
				// Seller-initiated flow lifts still-resting buys.
				for i := range buys {
					order := &buys[i]
					if order.Quantity == 0 {
						continue
					}
					if order.Price <= curBestBid {
						// Lost queue priority to resting exchange liquidity.
						break
					}
					if order.Price < mt.Price {
						break
					}
					sz := min64(order.Quantity, remaining)
					order.Quantity -= sz
					remaining -= sz
					trades = append(trades, Trade{
						Symbol:    sym,
						Price:     order.Price,
						Quantity:  sz,
						Buyer:     SelfTag,
						Timestamp: timestamp,
					})
					if remaining <= 0 {
						break
					}
				}
			} else {
				// Buyer-initiated flow, equidistant trades included, hits
				// still-resting sells.
				for i := range sells {
					order := &sells[i]
					if order.Quantity == 0 {
						continue
					}
					if order.Price >= curBestAsk {
						break
					}
					if order.Price > mt.Price {
						break
					}
					sz := min64(-order.Quantity, remaining)
					order.Quantity += sz
					remaining -= sz
					trades = append(trades, Trade{
						Symbol:    sym,
						Price:     order.Price,
						Quantity:  -sz,
						Seller:    SelfTag,
						Timestamp: timestamp,
					})
					if remaining <= 0 {
						break
					}
				}
			}
		}
	}

	return trades
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
