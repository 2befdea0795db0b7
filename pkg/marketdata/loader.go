package marketdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// Level is one resting price level of a book snapshot.
type Level struct {
	Price float64
	Size  int64
}

// PriceRow is one per-timestamp, per-instrument book row. A row whose first
// bid price is missing, invalid or non-positive is observation-only: it
// contributes no book levels, only the Mid scalar.
type PriceRow struct {
	Day             int
	Timestamp       int64
	Product         string
	Bids            []Level
	Asks            []Level
	Mid             float64
	ObservationOnly bool
}

// TradeRow is one replayed historical trade. Counterparty identities are
// blanked: replayed flow is anonymous.
type TradeRow struct {
	Timestamp int64
	Symbol    string
	Price     float64
	Quantity  int64
	Buyer     string
	Seller    string
}

// ReadPrices parses a ';'-separated prices file. Rows past timeLimit are
// dropped. Malformed rows are logged and skipped, never fatal.
func ReadPrices(path string, timeLimit int64) ([]PriceRow, error) {
	records, header, err := readDelimited(path)
	if err != nil {
		return nil, err
	}

	var rows []PriceRow
	for i, rec := range records {
		row, err := parsePriceRow(rec, header)
		if err != nil {
			zap.S().Warnf("skip malformed price row %d in %s: %v", i+2, path, err)
			continue
		}
		if row.Timestamp > timeLimit {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadTrades parses a ';'-separated trades file, truncated at timeLimit.
func ReadTrades(path string, timeLimit int64) ([]TradeRow, error) {
	records, header, err := readDelimited(path)
	if err != nil {
		return nil, err
	}

	var rows []TradeRow
	for i, rec := range records {
		row, err := parseTradeRow(rec, header)
		if err != nil {
			zap.S().Warnf("skip malformed trade row %d in %s: %v", i+2, path, err)
			continue
		}
		if row.Timestamp > timeLimit {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readDelimited(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read %s: empty file", path)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[name] = i
	}
	return records[1:], header, nil
}

func parsePriceRow(rec []string, header map[string]int) (PriceRow, error) {
	ts, err := fieldInt(rec, header, "timestamp")
	if err != nil {
		return PriceRow{}, err
	}
	product, err := fieldString(rec, header, "product")
	if err != nil {
		return PriceRow{}, err
	}
	day, _ := fieldInt(rec, header, "day")

	row := PriceRow{
		Day:       int(day),
		Timestamp: ts,
		Product:   product,
		Mid:       fieldFloat(rec, header, "mid_price"),
	}

	// A non-positive or unparseable first bid downgrades the whole row to
	// observation-only for this tick.
	firstBid := fieldFloat(rec, header, "bid_price_1")
	if math.IsNaN(firstBid) || firstBid <= 0 {
		row.ObservationOnly = true
		return row, nil
	}

	for i := 1; i <= 3; i++ {
		if lvl, ok := level(rec, header, fmt.Sprintf("bid_price_%d", i), fmt.Sprintf("bid_volume_%d", i)); ok {
			row.Bids = append(row.Bids, lvl)
		}
		if lvl, ok := level(rec, header, fmt.Sprintf("ask_price_%d", i), fmt.Sprintf("ask_volume_%d", i)); ok {
			row.Asks = append(row.Asks, lvl)
		}
	}
	return row, nil
}

func parseTradeRow(rec []string, header map[string]int) (TradeRow, error) {
	ts, err := fieldInt(rec, header, "timestamp")
	if err != nil {
		return TradeRow{}, err
	}
	symbol, err := fieldString(rec, header, "symbol")
	if err != nil {
		return TradeRow{}, err
	}
	price := fieldFloat(rec, header, "price")
	if math.IsNaN(price) || price <= 0 {
		return TradeRow{}, fmt.Errorf("invalid trade price")
	}
	qty, err := fieldInt(rec, header, "quantity")
	if err != nil {
		return TradeRow{}, err
	}
	if qty == 0 {
		return TradeRow{}, fmt.Errorf("zero trade quantity")
	}

	// Counterparty columns exist in the file but the replay keeps all
	// third-party flow anonymous.
	return TradeRow{
		Timestamp: ts,
		Symbol:    symbol,
		Price:     price,
		Quantity:  qty,
	}, nil
}

func level(rec []string, header map[string]int, priceCol, sizeCol string) (Level, bool) {
	px := fieldFloat(rec, header, priceCol)
	if math.IsNaN(px) || px <= 0 {
		return Level{}, false
	}
	sz, err := fieldInt(rec, header, sizeCol)
	if err != nil || sz <= 0 {
		return Level{}, false
	}
	return Level{Price: px, Size: sz}, true
}

func fieldString(rec []string, header map[string]int, name string) (string, error) {
	idx, ok := header[name]
	if !ok || idx >= len(rec) {
		return "", fmt.Errorf("missing column %s", name)
	}
	return rec[idx], nil
}

func fieldFloat(rec []string, header map[string]int, name string) float64 {
	s, err := fieldString(rec, header, name)
	if err != nil || s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func fieldInt(rec []string, header map[string]int, name string) (int64, error) {
	s, err := fieldString(rec, header, name)
	if err != nil {
		return 0, err
	}
	// Volumes occasionally come as "12.0"; parse through float.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return int64(f), nil
}
