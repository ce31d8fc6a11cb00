package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the hedge bot and the backtests.
type Config struct {
	APIKey   string `yaml:"-"`
	Host     string `yaml:"host"`
	WSURL    string `yaml:"ws_url"`
	Exchange string `yaml:"exchange"`

	SymbolPrefix string `yaml:"symbol_prefix"`
	StrikeStep   int    `yaml:"strike_step"`
	LotSize      int    `yaml:"lot_size"`
	SpreadWidth  int    `yaml:"spread_width"`
	HistoryDays  int    `yaml:"history_days"`

	DryRun   bool   `yaml:"dry_run"`
	Strategy string `yaml:"strategy"`

	Signal   SignalConfig `yaml:"signal"`
	Risk     RiskConfig   `yaml:"risk"`
	Sessions Sessions     `yaml:"sessions"`

	ControlAddr string `yaml:"control_addr"`
	FIXConfig   string `yaml:"fix_config"`
	Router      string `yaml:"router"` // "openalgo" or "fix"
}

type SignalConfig struct {
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	EMAPeriod     int     `yaml:"ema_period"`
	MACDFast      int     `yaml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal"`
}

// RiskConfig is expressed in points of the underlying future.
type RiskConfig struct {
	StopLoss      float64 `yaml:"stop_loss"`
	TakeProfit    float64 `yaml:"take_profit"`
	TSLActivation float64 `yaml:"tsl_activation"`
	TSLTrail      float64 `yaml:"tsl_trail"`
}

func Default() Config {
	return Config{
		Host:         "http://127.0.0.1:5000",
		WSURL:        "ws://127.0.0.1:8765",
		Exchange:     "NFO",
		SymbolPrefix: "NIFTY",
		StrikeStep:   50,
		LotSize:      75,
		SpreadWidth:  200,
		HistoryDays:  5,
		Strategy:     "debit_spread",
		Signal: SignalConfig{
			RSIPeriod:     14,
			RSIOverbought: 55,
			RSIOversold:   45,
			EMAPeriod:     200,
			MACDFast:      12,
			MACDSlow:      26,
			MACDSignal:    9,
		},
		Risk: RiskConfig{
			StopLoss:      20,
			TakeProfit:    50,
			TSLActivation: 20,
			TSLTrail:      10,
		},
		Sessions: Sessions{
			{Start: 9*60 + 15, End: 11 * 60},
			{Start: 13 * 60, End: 15 * 60},
		},
		ControlAddr: "127.0.0.1:7071",
		FIXConfig:   "config/quickfix.cfg",
		Router:      "openalgo",
	}
}

// Load builds the config from defaults, then the YAML file named by
// HEDGER_CONFIG (if any), then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("HEDGER_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
		log.Infof("[CONFIG] loaded %s", path)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	envString("OPENALGO_API_KEY", &c.APIKey)
	envString("OPENALGO_HOST", &c.Host)
	envString("OPENALGO_WS_URL", &c.WSURL)
	envString("EXCHANGE", &c.Exchange)
	envString("SYMBOL_PREFIX", &c.SymbolPrefix)
	envInt("STRIKE_STEP", &c.StrikeStep)
	envInt("LOT_SIZE", &c.LotSize)
	envInt("SPREAD_WIDTH", &c.SpreadWidth)
	envInt("HISTORY_DAYS", &c.HistoryDays)
	envBool("DRY_RUN", &c.DryRun)
	envString("STRATEGY", &c.Strategy)
	envFloat("STOP_LOSS_POINTS", &c.Risk.StopLoss)
	envFloat("TAKE_PROFIT_POINTS", &c.Risk.TakeProfit)
	envFloat("TSL_ACTIVATION_POINTS", &c.Risk.TSLActivation)
	envFloat("TSL_TRAIL_POINTS", &c.Risk.TSLTrail)
	envString("CONTROL_ADDR", &c.ControlAddr)
	envString("FIX_CONFIG", &c.FIXConfig)
	envString("ORDER_ROUTER", &c.Router)

	if v := strings.TrimSpace(os.Getenv("TRADING_SESSIONS")); v != "" {
		ss, err := ParseSessions(v)
		if err != nil {
			log.Warnf("[CONFIG] ignoring TRADING_SESSIONS=%q: %v", v, err)
		} else if len(ss) > 0 {
			c.Sessions = ss
		}
	}
}

// Validate checks the values a live run depends on.
func (c Config) Validate(live bool) error {
	var errs []error
	if live && c.APIKey == "" {
		errs = append(errs, errors.New("OPENALGO_API_KEY not set"))
	}
	if c.LotSize <= 0 {
		errs = append(errs, fmt.Errorf("lot size must be positive, got %d", c.LotSize))
	}
	if c.SpreadWidth <= 0 {
		errs = append(errs, fmt.Errorf("spread width must be positive, got %d", c.SpreadWidth))
	}
	if c.StrikeStep <= 0 {
		errs = append(errs, fmt.Errorf("strike step must be positive, got %d", c.StrikeStep))
	}
	s := c.Signal
	if s.RSIPeriod <= 0 || s.EMAPeriod <= 0 || s.MACDFast <= 0 || s.MACDSlow <= 0 || s.MACDSignal <= 0 {
		errs = append(errs, errors.New("indicator periods must be positive"))
	}
	if s.MACDFast >= s.MACDSlow {
		errs = append(errs, fmt.Errorf("macd fast (%d) must be below slow (%d)", s.MACDFast, s.MACDSlow))
	}
	if s.RSIOversold >= s.RSIOverbought {
		errs = append(errs, fmt.Errorf("rsi oversold (%.0f) must be below overbought (%.0f)", s.RSIOversold, s.RSIOverbought))
	}
	if len(c.Sessions) == 0 {
		errs = append(errs, errors.New("at least one trading session is required"))
	}
	for _, ss := range c.Sessions {
		if ss.Start >= ss.End {
			errs = append(errs, fmt.Errorf("session %s ends before it starts", ss))
		}
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"stop loss", c.Risk.StopLoss},
		{"take profit", c.Risk.TakeProfit},
		{"tsl activation", c.Risk.TSLActivation},
		{"tsl trail", c.Risk.TSLTrail},
	} {
		if v.val < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %.2f", v.name, v.val))
		}
	}
	if c.Router != "openalgo" && c.Router != "fix" {
		errs = append(errs, fmt.Errorf("unknown order router %q", c.Router))
	}
	return errors.Join(errs...)
}
