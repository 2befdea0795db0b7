package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joripage/backtest-dev/config"
	"github.com/joripage/backtest-dev/pkg/backtest"
	"github.com/joripage/backtest-dev/pkg/backtest/repo"
	"github.com/joripage/backtest-dev/pkg/infra"
	redis_wrapper "github.com/joripage/backtest-dev/pkg/infra/redis"
	"github.com/joripage/backtest-dev/pkg/logging"
	"github.com/joripage/backtest-dev/pkg/marketdata"
	"github.com/joripage/backtest-dev/pkg/report"
	"github.com/joripage/backtest-dev/pkg/risk"
	"github.com/joripage/backtest-dev/pkg/strategy"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	zapLogger, _ := zap.NewProduction()
	defer zapLogger.Sync() // nolint
	zap.ReplaceGlobals(zapLogger)

	cfg, err := config.Load(configFile)
	if err != nil {
		zap.S().Fatalf("load config: %v", err)
	}
	if cfg.Data == nil {
		zap.S().Fatal("data section is not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	runID := logging.NewRunID()
	ctx = logging.WithRunID(ctx, runID)
	log, ctx := logging.GetLogger(ctx)

	if err := run(ctx, cfg, runID); err != nil {
		log.Error(ctx, "run failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "run finished", zap.String("run_id", runID))
}

func run(ctx context.Context, cfg *config.AppConfig, runID string) error {
	prices, err := marketdata.ReadPrices(cfg.Data.PricesPath(), cfg.Sim.TimeLimit)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	trades, err := marketdata.ReadTrades(cfg.Data.TradesPath(), cfg.Sim.TimeLimit)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	times, states := backtest.BuildStates(prices, trades, cfg.Sim.TimeLimit)
	if len(times) == 0 {
		return fmt.Errorf("no ticks within time limit %d", cfg.Sim.TimeLimit)
	}

	policy, err := risk.FromName(cfg.Sim.BreachPolicy)
	if err != nil {
		return err
	}
	ledger := backtest.NewLedger(cfg.Sim.SettlementDelay, cfg.Sim.PositionLimits, policy)

	strat, err := strategy.New(cfg.Strategy.Name, strategy.Params{
		Fair:   cfg.Strategy.Fair,
		Cutoff: cfg.Strategy.Cutoff,
		Limits: cfg.Sim.PositionLimits,
	})
	if err != nil {
		return err
	}

	reporter := report.NewReporter(cfg.Data.Day)
	driver := backtest.NewDriver(times, states, strat, ledger, reporter)

	start := time.Now()
	if err := driver.Run(ctx); err != nil {
		return err
	}
	zap.S().Infow("simulation complete",
		"ticks", len(times),
		"elapsed", time.Since(start),
	)

	if err := writeOutputs(cfg.Output.Dir, reporter); err != nil {
		return err
	}

	if cfg.ResultDB != nil {
		if err := persistResults(ctx, cfg, runID, reporter); err != nil {
			return fmt.Errorf("persist results: %w", err)
		}
	}

	if cfg.SummaryCache != nil {
		rdb, err := redis_wrapper.InitRedis(cfg.SummaryCache)
		if err != nil {
			return fmt.Errorf("init summary cache: %w", err)
		}
		defer rdb.Close()
		sink := report.NewSummarySink(rdb)
		if err := sink.Publish(ctx, runID, ledger.Positions(), reporter.PnL()); err != nil {
			return err
		}
	}

	return nil
}

func writeOutputs(dir string, reporter *report.Reporter) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	sandbox, err := os.Create(filepath.Join(dir, "sandbox.log"))
	if err != nil {
		return err
	}
	defer sandbox.Close()
	if err := reporter.WriteSandboxLog(sandbox); err != nil {
		return err
	}

	activity, err := os.Create(filepath.Join(dir, "activities.csv"))
	if err != nil {
		return err
	}
	defer activity.Close()
	return reporter.WriteActivityLog(activity)
}

func persistResults(ctx context.Context, cfg *config.AppConfig, runID string, reporter *report.Reporter) error {
	resultDB := infra.GetMigrateTool().CreateDBAndMigrate(cfg.ResultDB, "file://migration/sql")
	r := repo.NewRepo(resultDB)

	if _, err := r.Run().Create(ctx, &repo.Run{
		ID:        runID,
		Service:   cfg.ServiceName,
		Round:     cfg.Data.Round,
		Day:       cfg.Data.Day,
		Strategy:  cfg.Strategy.Name,
		TimeLimit: cfg.Sim.TimeLimit,
	}); err != nil {
		return err
	}

	var tradeRecords []*repo.TradeRecord
	for _, rec := range reporter.Records() {
		for _, trades := range rec.State.OwnTrades {
			for _, t := range trades {
				tradeRecords = append(tradeRecords, &repo.TradeRecord{
					RunID:     runID,
					Timestamp: t.Timestamp,
					Symbol:    t.Symbol,
					Price:     t.Price,
					Quantity:  t.Quantity,
					Buyer:     t.Buyer,
					Seller:    t.Seller,
				})
			}
		}
	}
	if _, err := r.Trade().BulkCreate(ctx, tradeRecords); err != nil {
		return err
	}

	var activityRecords []*repo.ActivityRecord
	for _, row := range reporter.Rows() {
		activityRecords = append(activityRecords, toActivityRecord(runID, row))
	}
	_, err := r.Activity().BulkCreate(ctx, activityRecords)
	return err
}

func toActivityRecord(runID string, row report.ActivityRow) *repo.ActivityRecord {
	rec := &repo.ActivityRecord{
		RunID:     runID,
		Day:       row.Day,
		Timestamp: row.Timestamp,
		Product:   row.Product,
		MidPrice:  row.Mid,
		PnL:       row.PnL.String(),
	}
	rec.BidPrice1, rec.BidVol1 = cellValues(row.Bids[0])
	rec.BidPrice2, rec.BidVol2 = cellValues(row.Bids[1])
	rec.BidPrice3, rec.BidVol3 = cellValues(row.Bids[2])
	rec.AskPrice1, rec.AskVol1 = cellValues(row.Asks[0])
	rec.AskPrice2, rec.AskVol2 = cellValues(row.Asks[1])
	rec.AskPrice3, rec.AskVol3 = cellValues(row.Asks[2])
	return rec
}

func cellValues(cell report.LevelCell) (*float64, *int64) {
	if !cell.OK {
		return nil, nil
	}
	px, sz := cell.Price, cell.Size
	return &px, &sz
}
