package backtest

import (
	"context"
	"fmt"

	"github.com/joripage/backtest-dev/pkg/logging"
	"go.uber.org/zap"
)

// Strategy is the pluggable decision component: one synchronous call per
// tick, market state in, desired orders by instrument out. The driver hands
// it a defensive copy, so implementations may mutate their argument freely
// but must produce a complete order set before returning. A returned error
// aborts the run.
type Strategy interface {
	Run(state *MarketState) (map[string][]Order, error)
}

// TickRecorder receives one record per processed tick.
type TickRecorder interface {
	RecordTick(state *MarketState, orders map[string][]Order) error
}

type driverState int

const (
	stateTicking driverState = iota
	stateDone
)

// Driver owns the per-timestamp loop. Ticks are processed in strictly
// ascending timestamp order; the settlement-delay causality rule depends on
// that order, so no step is ever skipped or reordered.
type Driver struct {
	times    []int64
	states   map[int64]*MarketState
	strategy Strategy
	ledger   *Ledger
	recorder TickRecorder

	state driverState
}

func NewDriver(times []int64, states map[int64]*MarketState, strategy Strategy, ledger *Ledger, recorder TickRecorder) *Driver {
	return &Driver{
		times:    times,
		states:   states,
		strategy: strategy,
		ledger:   ledger,
		recorder: recorder,
		state:    stateTicking,
	}
}

// Run replays every tick and transitions to done. The context is checked
// between ticks only; within a tick the strategy call is blocking.
func (d *Driver) Run(ctx context.Context) error {
	log, ctx := logging.GetLogger(ctx)

	for _, ts := range d.times {
		select {
		case <-ctx.Done():
			d.state = stateDone
			return ctx.Err()
		default:
		}

		state := d.states[ts]

		d.ledger.ApplyDue(ts, state)

		position := make(map[string]int64, len(state.Position))
		for sym, pos := range state.Position {
			position[sym] = pos
		}

		orders, err := d.strategy.Run(state.Clone())
		if err != nil {
			d.state = stateDone
			return fmt.Errorf("strategy failed at tick %d: %w", ts, err)
		}

		trades := matchTick(orders, state.OrderDepths, state.MarketTrades, ts)

		if err := d.ledger.Settle(ts, position, trades); err != nil {
			d.state = stateDone
			return err
		}

		if d.recorder != nil {
			if err := d.recorder.RecordTick(state, orders); err != nil {
				d.state = stateDone
				return fmt.Errorf("record tick %d: %w", ts, err)
			}
		}

		log.Debug(ctx, "tick processed",
			zap.Int64("timestamp", ts),
			zap.Int("orders", len(orders)),
			zap.Int("trades", len(trades)),
		)
	}

	d.state = stateDone
	return nil
}

// Done reports whether the driver reached its terminal state.
func (d *Driver) Done() bool {
	return d.state == stateDone
}
