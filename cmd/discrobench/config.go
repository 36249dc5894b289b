package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
	"github.com/uklotzde/discro/dwake"
)

type config struct {
	Subscribers int
	Projected   int
	Bucket      int
	Writes      int
	Wake        string
	LogLevel    slog.Level
	Metrics     bool
}

func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Subscribers: v.GetInt("subscribers"),
		Projected:   v.GetInt("projected"),
		Bucket:      v.GetInt("bucket"),
		Writes:      v.GetInt("writes"),
		Wake:        v.GetString("wake"),
		Metrics:     v.GetBool("metrics"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return config{}, fmt.Errorf("invalid log level: %w", err)
	}

	if cfg.Subscribers < 0 || cfg.Projected < 0 {
		return config{}, fmt.Errorf(
			"subscriber counts must not be negative (got %d plain, %d projected)",
			cfg.Subscribers, cfg.Projected,
		)
	}
	if cfg.Subscribers+cfg.Projected == 0 {
		return config{}, fmt.Errorf("at least one subscriber is required")
	}
	if cfg.Writes < 1 {
		return config{}, fmt.Errorf("writes must be positive (got %d)", cfg.Writes)
	}
	if cfg.Bucket < 1 {
		return config{}, fmt.Errorf("bucket must be positive (got %d)", cfg.Bucket)
	}
	if _, err := cfg.wakeSet(); err != nil {
		return config{}, err
	}

	return cfg, nil
}

func (c config) wakeSet() (dwake.WakeSet, error) {
	switch c.Wake {
	case "chan":
		return dwake.NewChan(), nil
	case "cond":
		return dwake.NewCond(), nil
	default:
		return nil, fmt.Errorf("unknown wake model %q (want chan or cond)", c.Wake)
	}
}
