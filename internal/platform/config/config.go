package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/services"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"thermasense"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	PostgresMaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
	PostgresMaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	PostgresConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`

	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	VoteRateLimit  int           `env:"VOTE_RATE_LIMIT" envDefault:"30"`
	VoteRateWindow time.Duration `env:"VOTE_RATE_WINDOW" envDefault:"1m"`

	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	BusPartitions      int           `env:"BUS_PARTITIONS" envDefault:"8"`

	ActuatorKind    string        `env:"ACTUATOR_KIND" envDefault:"logging"`
	ActuatorURL     string        `env:"ACTUATOR_URL"`
	ActuatorToken   string        `env:"ACTUATOR_TOKEN"`
	ActuatorTimeout time.Duration `env:"ACTUATOR_TIMEOUT" envDefault:"5s"`

	InfluxURL    string `env:"INFLUX_URL"`
	InfluxToken  string `env:"INFLUX_TOKEN"`
	InfluxOrg    string `env:"INFLUX_ORG" envDefault:"thermasense"`
	InfluxBucket string `env:"INFLUX_BUCKET" envDefault:"setpoints"`

	NATSURL string `env:"NATS_URL"`

	Engine EngineConfig
}

// EngineConfig carries the recommendation policy knobs.
type EngineConfig struct {
	VoteValidMinutes        int             `env:"VOTE_VALID_DURATION_MINUTES" envDefault:"15"`
	MinValidVotes           int             `env:"MIN_VALID_VOTES" envDefault:"3"`
	FrequentUserDays        int             `env:"FREQUENT_USER_DAYS_THRESHOLD" envDefault:"7"`
	FrequentUserVotes       int             `env:"FREQUENT_USER_VOTES_THRESHOLD" envDefault:"5"`
	WeightFrequentUser      decimal.Decimal `env:"WEIGHT_FREQUENT_USER" envDefault:"1.5"`
	WeightNormalUser        decimal.Decimal `env:"WEIGHT_NORMAL_USER" envDefault:"1.0"`
	AdjustFactor            decimal.Decimal `env:"ADJUST_FACTOR" envDefault:"0.5"`
	ColdScoreThreshold      decimal.Decimal `env:"COLD_SCORE_THRESHOLD" envDefault:"-0.5"`
	ColdAdjustFactor        decimal.Decimal `env:"COLD_ADJUST_FACTOR" envDefault:"0.7"`
	MaxTempChangePerCycle   decimal.Decimal `env:"MAX_TEMP_CHANGE_PER_CYCLE" envDefault:"0.8"`
	CommitHysteresis        decimal.Decimal `env:"COMMIT_HYSTERESIS" envDefault:"0.05"`
	PhysicalConvergenceRate decimal.Decimal `env:"PHYSICAL_CONVERGENCE_RATE" envDefault:"0.1"`
	PhysicalMaxStep         decimal.Decimal `env:"PHYSICAL_MAX_STEP" envDefault:"0.2"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ActuatorKind = strings.ToLower(strings.TrimSpace(cfg.ActuatorKind))
	if err := cfg.Engine.Policy().Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Policy maps the environment knobs onto the engine policy.
func (c EngineConfig) Policy() services.Policy {
	return services.Policy{
		VoteWindow:              time.Duration(c.VoteValidMinutes) * time.Minute,
		MinValidVotes:           c.MinValidVotes,
		FrequentTenure:          time.Duration(c.FrequentUserDays) * 24 * time.Hour,
		FrequentMinVotes:        c.FrequentUserVotes,
		WeightFrequent:          c.WeightFrequentUser,
		WeightNormal:            c.WeightNormalUser,
		AdjustFactor:            c.AdjustFactor,
		ColdScoreThreshold:      c.ColdScoreThreshold,
		ColdAdjustFactor:        c.ColdAdjustFactor,
		MaxDeltaPerCycle:        c.MaxTempChangePerCycle,
		CommitHysteresis:        c.CommitHysteresis,
		PhysicalConvergenceRate: c.PhysicalConvergenceRate,
		PhysicalMaxStep:         c.PhysicalMaxStep,
	}
}
