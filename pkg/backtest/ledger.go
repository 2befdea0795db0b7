package backtest

import (
	"fmt"
	"sort"

	"github.com/gammazero/deque"
	"github.com/joripage/backtest-dev/pkg/risk"
)

// pendingUpdate is position/own-trade state computed at one tick that
// becomes visible one settlement delay later.
type pendingUpdate struct {
	due       int64
	position  map[string]int64
	ownTrades map[string][]Trade
}

// Ledger tracks positions, applies the configured limit policy to each
// fill, and delays visibility of new position/trade state by a fixed
// settlement offset. Updates whose due timestamp never materializes as a
// tick are silently discarded.
type Ledger struct {
	delay   int64
	limits  map[string]int64
	policy  risk.LimitPolicy
	pending deque.Deque[pendingUpdate]
}

func NewLedger(delay int64, limits map[string]int64, policy risk.LimitPolicy) *Ledger {
	return &Ledger{
		delay:  delay,
		limits: limits,
		policy: policy,
	}
}

// Settle walks the tick's trades in generation order against the position
// snapshot taken at tick start, normalizes quantities to magnitudes, and
// queues the resulting state to become visible at timestamp+delay.
//
// The position update is queued every tick, trades or not, so positions
// propagate forward; the own-trades update is queued only when fills
// happened.
func (l *Ledger) Settle(timestamp int64, startPosition map[string]int64, trades []Trade) error {
	position := make(map[string]int64, len(startPosition))
	for sym, pos := range startPosition {
		position[sym] = pos
	}

	var grouped map[string][]Trade
	if len(trades) > 0 {
		grouped = make(map[string][]Trade)
		for _, trade := range trades {
			qty := trade.Quantity
			limit, limited := l.limits[trade.Symbol]
			if limited && abs64(position[trade.Symbol]+qty) > limit {
				allowed, err := l.policy.Apply(trade.Symbol, qty, position[trade.Symbol], limit)
				if err != nil {
					return fmt.Errorf("settle tick %d: %w", timestamp, err)
				}
				qty = allowed
			}
			if qty == 0 {
				continue
			}
			position[trade.Symbol] += qty

			trade.Quantity = abs64(qty)
			grouped[trade.Symbol] = append(grouped[trade.Symbol], trade)
		}
	}

	l.pending.PushBack(pendingUpdate{
		due:       timestamp + l.delay,
		position:  position,
		ownTrades: grouped,
	})
	return nil
}

// ApplyDue pops every pending update due at or before timestamp. Updates
// due exactly now are written into state before the strategy sees it;
// earlier ones had no tick at their due time and are dropped.
func (l *Ledger) ApplyDue(timestamp int64, state *MarketState) {
	for l.pending.Len() > 0 && l.pending.Front().due <= timestamp {
		update := l.pending.PopFront()
		if update.due != timestamp {
			continue
		}

		for sym, pos := range update.position {
			state.Position[sym] = pos
		}
		if update.ownTrades != nil {
			state.OwnTrades = update.ownTrades
		}
	}
}

// Positions returns the most recently settled per-instrument positions,
// sorted by symbol for deterministic reporting.
func (l *Ledger) Positions() []SymbolPosition {
	var latest map[string]int64
	if l.pending.Len() > 0 {
		latest = l.pending.Back().position
	}
	out := make([]SymbolPosition, 0, len(latest))
	for sym, pos := range latest {
		out = append(out, SymbolPosition{Symbol: sym, Position: pos})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

type SymbolPosition struct {
	Symbol   string
	Position int64
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
