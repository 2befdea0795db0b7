package repo

import (
	"time"
)

// Run is one finished simulation run.
type Run struct {
	ID        string `gorm:"primaryKey"`
	Service   string
	Round     int
	Day       int
	Strategy  string
	TimeLimit int64
	CreatedAt time.Time
}

func (Run) TableName() string { return "backtest_runs" }

// TradeRecord is one settled own fill of a run.
type TradeRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RunID     string `gorm:"index"`
	Timestamp int64
	Symbol    string
	Price     float64
	Quantity  int64
	Buyer     string
	Seller    string
}

func (TradeRecord) TableName() string { return "backtest_trades" }

// ActivityRecord is one activity-log row of a run.
type ActivityRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RunID     string `gorm:"index"`
	Day       int
	Timestamp int64
	Product   string
	BidPrice1 *float64
	BidVol1   *int64
	BidPrice2 *float64
	BidVol2   *int64
	BidPrice3 *float64
	BidVol3   *int64
	AskPrice1 *float64
	AskVol1   *int64
	AskPrice2 *float64
	AskVol2   *int64
	AskPrice3 *float64
	AskVol3   *int64
	MidPrice  float64
	PnL       string
}

func (ActivityRecord) TableName() string { return "backtest_activity" }
