package config

import (
	"fmt"
	"os"

	postgres_wrapper "github.com/joripage/backtest-dev/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/backtest-dev/pkg/infra/redis"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string          `yaml:"service_name"`
	Data        *DataConfig     `yaml:"data"`
	Sim         *SimConfig      `yaml:"sim"`
	Strategy    *StrategyConfig `yaml:"strategy"`
	Output      *OutputConfig   `yaml:"output"`

	// Optional sinks. Nil means the sink is disabled.
	ResultDB     *postgres_wrapper.PostgresConfig `yaml:"result_db"`
	SummaryCache *redis_wrapper.RedisConfig       `yaml:"summary_cache"`
}

// DataConfig locates the historical files of one (round, day).
type DataConfig struct {
	Dir   string `yaml:"dir"`
	Round int    `yaml:"round"`
	Day   int    `yaml:"day"`
}

func (c *DataConfig) PricesPath() string {
	return fmt.Sprintf("%s/prices_round_%d_day_%d.csv", c.Dir, c.Round, c.Day)
}

func (c *DataConfig) TradesPath() string {
	return fmt.Sprintf("%s/trades_round_%d_day_%d_nn.csv", c.Dir, c.Round, c.Day)
}

type SimConfig struct {
	TimeLimit       int64            `yaml:"time_limit"`
	SettlementDelay int64            `yaml:"settlement_delay"`
	PositionLimits  map[string]int64 `yaml:"position_limits"`
	BreachPolicy    string           `yaml:"breach_policy"` // log, clip, halt
}

type StrategyConfig struct {
	Name   string             `yaml:"name"`
	Cutoff int64              `yaml:"cutoff"`
	Fair   map[string]float64 `yaml:"fair"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	applyDefaults(cfg)

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Sim == nil {
		cfg.Sim = &SimConfig{}
	}
	if cfg.Sim.TimeLimit == 0 {
		cfg.Sim.TimeLimit = 999900
	}
	if cfg.Sim.SettlementDelay == 0 {
		cfg.Sim.SettlementDelay = 100
	}
	if cfg.Sim.BreachPolicy == "" {
		cfg.Sim.BreachPolicy = "log"
	}
	if cfg.Strategy == nil {
		cfg.Strategy = &StrategyConfig{Name: "noop"}
	}
	if cfg.Output == nil {
		cfg.Output = &OutputConfig{Dir: "./backtest_logs"}
	}
}
