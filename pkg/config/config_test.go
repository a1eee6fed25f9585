package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaultPopulatesBuiltInValues(t *testing.T) {
	cfg := Default()
	if cfg.MaxHops != 4 {
		t.Fatalf("expected MaxHops 4, got %d", cfg.MaxHops)
	}
	if cfg.OptimizationMethod != OptimizationBrent {
		t.Fatalf("expected brent_method as the default optimization method, got %s", cfg.OptimizationMethod)
	}
	if cfg.SenderParallelism != 8 || cfg.SenderTick != time.Millisecond {
		t.Fatalf("unexpected sender defaults: %#v", cfg)
	}
	if cfg.Watcher.MaxPools != 20_000 || cfg.Watcher.MaxRoutes != 200_000 {
		t.Fatalf("unexpected watcher defaults: %#v", cfg.Watcher)
	}
	if cfg.LookupTableTTL != 2*time.Hour {
		t.Fatalf("expected a 2h lookup table TTL, got %s", cfg.LookupTableTTL)
	}
}

// TestLoadWithNoConfigFilesFallsBackToDefaults exercises the common
// first-run case: no default.yaml/<env>.yaml on disk, so Load must tolerate
// viper.ConfigFileNotFoundError and still return the built-in defaults
// rather than propagating it as a hard error.
func TestLoadWithNoConfigFilesFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error with no config files present: %v", err)
	}
	if cfg.MaxHops != 4 || cfg.OptimizationMethod != OptimizationBrent {
		t.Fatalf("expected defaults to survive an empty config load, got %#v", cfg)
	}
}

func TestLoadMergesARBPrefixedEnvVars(t *testing.T) {
	t.Setenv("ARB_MAX_HOPS", "6")
	t.Setenv("ARB_BASE_MINT", "So11111111111111111111111111111111111111112")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxHops != 6 {
		t.Fatalf("expected ARB_MAX_HOPS to override the default, got %d", cfg.MaxHops)
	}
	if cfg.BaseMint != "So11111111111111111111111111111111111111112" {
		t.Fatalf("expected ARB_BASE_MINT to populate BaseMint, got %q", cfg.BaseMint)
	}
}

func TestLoadFromEnvUsesARBEnvForOverrideSelection(t *testing.T) {
	t.Setenv("ARB_ENV", "nonexistent_env_file")
	if _, err := LoadFromEnv(); err != nil {
		t.Fatalf("expected a missing override file to be tolerated, got %v", err)
	}
}

func TestLoadPopulatesAppConfigGlobal(t *testing.T) {
	os.Unsetenv("ARB_MAX_HOPS")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if AppConfig.MaxHops != cfg.MaxHops {
		t.Fatalf("expected Load to populate the AppConfig package global")
	}
}
