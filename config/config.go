package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polysim/internal/application/optimizer"
	"github.com/alejandrodnm/polysim/internal/domain"
)

// Config is the full runtime configuration.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// SimConfig mirrors domain.SimConfig in YAML-friendly form.
type SimConfig struct {
	SpreadTicks float64 `yaml:"spread_ticks"`
	TickSize    float64 `yaml:"tick_size"`
	SlippageBps float64 `yaml:"slippage_bps"`
	MinEdge     float64 `yaml:"min_edge"`
	MinPrice    float64 `yaml:"min_price"`
	MaxPrice    float64 `yaml:"max_price"`
	Fees        *bool   `yaml:"fees"` // nil = on

	Sizing         SizingConfig `yaml:"sizing"`
	InitialCapital float64      `yaml:"initial_capital"`
	MaxMarketCost  float64      `yaml:"max_market_cost"`

	ExecLagMS          int64   `yaml:"exec_lag_ms"`
	CooldownMS         int64   `yaml:"cooldown_ms"`
	MaxTradesPerMarket int     `yaml:"max_trades_per_market"`
	MinSecondsLeft     float64 `yaml:"min_seconds_left"`

	SpotAdjust    SpotAdjustConfig `yaml:"spot_adjust"`
	Conservative  bool             `yaml:"conservative"`
	VolMultiplier float64          `yaml:"vol_multiplier"`
	RiskFree      float64          `yaml:"risk_free"`

	Kurtosis *float64 `yaml:"kurtosis"` // nil = off
	Smile    *float64 `yaml:"smile"`    // nil = off
}

// SizingConfig selects the sizing mode by name.
type SizingConfig struct {
	Method   string  `yaml:"method"` // fixed | bankroll
	Shares   float64 `yaml:"shares"`
	Fraction float64 `yaml:"fraction"`
}

// SpotAdjustConfig selects the basis-adjustment method by name.
type SpotAdjustConfig struct {
	Method     string  `yaml:"method"` // "" | static | rolling-mean | ema | median
	Value      float64 `yaml:"value"`
	Window     int     `yaml:"window"`
	HalfLifeMS int64   `yaml:"half_life_ms"`
}

// OptimizerConfig controls the parameter sweep.
type OptimizerConfig struct {
	Edges      []float64 `yaml:"edges"`
	Fractions  []float64 `yaml:"fractions"`
	TrainRatio float64   `yaml:"train_ratio"`
	StressTopN int       `yaml:"stress_top_n"`
	Workers    int       `yaml:"workers"`
}

// APIConfig holds the data-source base URLs and identifiers.
type APIConfig struct {
	CLOBBase   string `yaml:"clob_base"`
	GammaBase  string `yaml:"gamma_base"`
	SpotBase   string `yaml:"spot_base"`
	VolBase    string `yaml:"vol_base"`
	OracleBase string `yaml:"oracle_base"`

	Series   string `yaml:"series"`    // up/down series slug
	Symbol   string `yaml:"symbol"`    // spot symbol
	VolIndex string `yaml:"vol_index"` // implied-vol index name
	Feed     string `yaml:"feed"`      // oracle feed path
}

// StorageConfig controls where history and reports are persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if one exists. Env values
// override YAML for the keys they cover. A missing path yields the
// defaults, so the binary runs without any config file at all.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// DomainSim converts the YAML form into the validated domain settings.
// The date range comes from the caller (CLI flags), not the file.
func (c *Config) DomainSim(from, to int64) (domain.SimConfig, error) {
	out := domain.DefaultSimConfig()
	out.From = from
	out.To = to

	s := c.Sim
	if s.SpreadTicks != 0 {
		out.SpreadTicks = s.SpreadTicks
	}
	if s.TickSize != 0 {
		out.TickSize = s.TickSize
	}
	out.SlippageBps = s.SlippageBps
	if s.MinEdge != 0 {
		out.MinEdge = s.MinEdge
	}
	if s.MinPrice != 0 {
		out.MinPrice = s.MinPrice
	}
	if s.MaxPrice != 0 {
		out.MaxPrice = s.MaxPrice
	}
	if s.Fees != nil {
		out.FeesOn = *s.Fees
	}
	out.InitialCapital = s.InitialCapital
	if s.MaxMarketCost != 0 {
		out.MaxMarketCost = s.MaxMarketCost
	}
	if s.ExecLagMS != 0 {
		out.ExecLagMS = s.ExecLagMS
	}
	if s.CooldownMS != 0 {
		out.CooldownMS = s.CooldownMS
	}
	if s.MaxTradesPerMarket != 0 {
		out.MaxTradesPerMarket = s.MaxTradesPerMarket
	}
	if s.MinSecondsLeft != 0 {
		out.MinSecondsLeft = s.MinSecondsLeft
	}
	out.Conservative = s.Conservative
	if s.VolMultiplier != 0 {
		out.VolMultiplier = s.VolMultiplier
	}
	if s.RiskFree != 0 {
		out.RiskFree = s.RiskFree
	}
	if s.Kurtosis != nil {
		out.Pricing.KurtosisOn = true
		out.Pricing.Kurtosis = *s.Kurtosis
	}
	if s.Smile != nil {
		out.Pricing.SmileOn = true
		out.Pricing.Smile = *s.Smile
	}

	sizing, err := s.Sizing.toDomain()
	if err != nil {
		return domain.SimConfig{}, err
	}
	if sizing != nil {
		out.Sizing = sizing
	}

	adjust, err := s.SpotAdjust.toDomain()
	if err != nil {
		return domain.SimConfig{}, err
	}
	out.SpotAdjust = adjust

	return out, out.Validate()
}

func (s SizingConfig) toDomain() (domain.SizingMode, error) {
	switch s.Method {
	case "":
		return nil, nil
	case "fixed":
		return domain.FixedShares{Shares: s.Shares}, nil
	case "bankroll":
		return domain.BankrollFraction{Fraction: s.Fraction}, nil
	default:
		return nil, fmt.Errorf("config: unknown sizing method %q", s.Method)
	}
}

func (a SpotAdjustConfig) toDomain() (domain.SpotAdjust, error) {
	switch a.Method {
	case "":
		return nil, nil
	case "static":
		return domain.StaticAdjust{Value: a.Value}, nil
	case "rolling-mean":
		return domain.RollingMeanAdjust{Window: a.Window}, nil
	case "ema":
		return domain.EMAAdjust{HalfLifeMS: a.HalfLifeMS}, nil
	case "median":
		return domain.MedianAdjust{Window: a.Window}, nil
	default:
		return nil, fmt.Errorf("config: unknown spot-adjust method %q", a.Method)
	}
}

// OptimizerRun converts the YAML form into a sweep configuration with
// the given base settings.
func (c *Config) OptimizerRun(base domain.SimConfig) optimizer.Config {
	out := optimizer.DefaultConfig()
	o := c.Optimizer
	if len(o.Edges) > 0 {
		out.Edges = o.Edges
	}
	if len(o.Fractions) > 0 {
		out.Fractions = o.Fractions
	}
	if o.TrainRatio != 0 {
		out.TrainRatio = o.TrainRatio
	}
	if o.StressTopN != 0 {
		out.StressTopN = o.StressTopN
	}
	out.Workers = o.Workers
	out.Base = base
	return out
}

// applyEnvOverrides overrides values from environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYSIM_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POLYSIM_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sim.InitialCapital = f
		}
	}
}

// setDefaults fills the values the rest of the system requires.
func setDefaults(cfg *Config) {
	if cfg.API.Series == "" {
		cfg.API.Series = "bitcoin-up-or-down-15-minute"
	}
	if cfg.API.Symbol == "" {
		cfg.API.Symbol = "BTCUSDT"
	}
	if cfg.API.VolIndex == "" {
		cfg.API.VolIndex = "btc_usd"
	}
	if cfg.API.Feed == "" {
		cfg.API.Feed = "btc-usd"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polysim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
