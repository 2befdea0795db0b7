package report

import (
	"context"
	"fmt"
	"time"

	"github.com/joripage/backtest-dev/pkg/backtest"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const summaryTTL = 7 * 24 * time.Hour

// SummarySink publishes a finished run's headline numbers to redis so
// grading dashboards can read them without touching the result database.
type SummarySink struct {
	rdb *redis.Client
}

func NewSummarySink(rdb *redis.Client) *SummarySink {
	return &SummarySink{rdb: rdb}
}

// Publish stores final positions and marked PnL per instrument under
// backtest:run:<id>, with a TTL so abandoned runs age out.
func (s *SummarySink) Publish(ctx context.Context, runID string, positions []backtest.SymbolPosition, pnl map[string]decimal.Decimal) error {
	key := fmt.Sprintf("backtest:run:%s", runID)

	fields := make(map[string]interface{}, len(positions)*2)
	for _, p := range positions {
		fields[fmt.Sprintf("position:%s", p.Symbol)] = p.Position
	}
	for sym, v := range pnl {
		fields[fmt.Sprintf("pnl:%s", sym)] = v.String()
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}
	if err := s.rdb.Expire(ctx, key, summaryTTL).Err(); err != nil {
		return fmt.Errorf("expire run summary: %w", err)
	}
	return nil
}
