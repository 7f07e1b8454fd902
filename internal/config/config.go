package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-engine/internal/scoring"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	// Scoring overrides the engine coefficients. Unset fields keep their defaults.
	Scoring struct {
		SelectPenalty    *float64 `yaml:"selectPenalty"`
		KeywordCredit    *float64 `yaml:"keywordCredit"`
		DefaultTolerance *float64 `yaml:"defaultTolerance"`
	} `yaml:"scoring"`
}

const defaultExchange = "quiz.events"

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = defaultExchange
	}
	return cfg, nil
}

// ScoringPolicy returns the default policy with the configured overrides applied.
func (c Config) ScoringPolicy() scoring.Policy {
	p := scoring.DefaultPolicy()
	if v := c.Scoring.SelectPenalty; v != nil {
		p.SelectPenalty = *v
	}
	if v := c.Scoring.KeywordCredit; v != nil {
		p.KeywordCredit = *v
	}
	if v := c.Scoring.DefaultTolerance; v != nil {
		p.DefaultTolerance = *v
	}
	return p
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
