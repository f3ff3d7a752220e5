package strategyconfig

import (
	"errors"
	"math"
	"os"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Signals.Window != 60 || cfg.Signals.EntryZScore != 2.0 || cfg.Signals.ExitZScore != 0.0 {
		t.Errorf("unexpected signal defaults: %+v", cfg.Signals)
	}
	if cfg.Screening.SignificanceLevel != 0.05 || cfg.Screening.MinObservations != 20 {
		t.Errorf("unexpected screening defaults: %+v", cfg.Screening)
	}
	if cfg.Backtest.InitialCapital != 100000 {
		t.Errorf("expected initial capital 100000, got %v", cfg.Backtest.InitialCapital)
	}
}

func TestLoadRepositoryConfig(t *testing.T) {
	path := "../../config/strategy/sp500_pairs.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Meta.StrategyID != "sp500_pairs" {
		t.Errorf("expected strategy_id=sp500_pairs, got %s", cfg.Meta.StrategyID)
	}
	if len(yamlData) == 0 {
		t.Error("expected raw yaml bytes")
	}

	want, _ := Hash(Default())
	got, _ := Hash(cfg)
	if got != want {
		t.Errorf("repository config should equal defaults: %s != %s", got, want)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, data, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Signals.Window != 60 || len(data) == 0 {
		t.Errorf("expected defaults with rendered yaml, got %+v", cfg.Signals)
	}
}

func TestParsePartialOverride(t *testing.T) {
	cfg, err := Parse([]byte("signals:\n  window: 20\n  min_observations: 20\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Signals.Window != 20 {
		t.Errorf("expected window 20, got %d", cfg.Signals.Window)
	}
	if cfg.Signals.EntryZScore != 2.0 {
		t.Errorf("unset fields must keep defaults, got entry %v", cfg.Signals.EntryZScore)
	}
}

func TestParseUnknownField(t *testing.T) {
	if _, err := Parse([]byte("signals:\n  windw: 20\n")); err == nil {
		t.Error("expected unknown field to fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero entry", func(c *Config) { c.Signals.EntryZScore = 0 }, "signals.entry_zscore"},
		{"negative entry", func(c *Config) { c.Signals.EntryZScore = -1 }, "signals.entry_zscore"},
		{"NaN exit", func(c *Config) { c.Signals.ExitZScore = math.NaN() }, "signals.exit_zscore"},
		{"window one", func(c *Config) { c.Signals.Window = 1 }, "signals.window"},
		{"significance one", func(c *Config) { c.Screening.SignificanceLevel = 1 }, "screening.significance_level"},
		{"no capital", func(c *Config) { c.Backtest.InitialCapital = 0 }, "backtest.initial_capital"},
		{"one fallback ticker", func(c *Config) { c.Backtest.FallbackPair = []string{"AMZN"} }, "backtest.fallback_pair"},
		{"same fallback tickers", func(c *Config) { c.Backtest.FallbackPair = []string{"KO", "KO"} }, "backtest.fallback_pair"},
		{"signal minimum below window", func(c *Config) { c.Signals.MinObservations = 30 }, "signals.min_observations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	if w := Warnings(Default()); len(w) != 0 {
		t.Errorf("default config should not warn, got %v", w)
	}

	for _, exit := range []float64{-2.5, 2.0, 3.0} {
		cfg := Default()
		cfg.Signals.ExitZScore = exit
		if err := Validate(cfg); err != nil {
			t.Errorf("exit %v: Validate() = %v, want nil", exit, err)
		}
		if w := Warnings(cfg); len(w) != 1 {
			t.Errorf("exit %v: Warnings() = %v, want one warning", exit, w)
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	a, err := Hash(Default())
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(a))
	}

	b, _ := Hash(Default())
	if a != b {
		t.Error("hash not deterministic")
	}

	changed := Default()
	changed.Signals.EntryZScore = 1.5
	c, _ := Hash(changed)
	if c == a {
		t.Error("hash must change with parameters")
	}
}
