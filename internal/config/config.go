package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
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
	Content struct {
		TTL string `yaml:"ttl"`
	} `yaml:"content"`
	Game struct {
		QuestionSeconds  int    `yaml:"question_seconds"`
		PointsPerCorrect int    `yaml:"points_per_correct"`
		NormalPoolSize   int    `yaml:"normal_pool_size"`
		ComboBonus       int    `yaml:"combo_bonus"`
		CountdownStep    string `yaml:"countdown_step"`
		RewardMinStars   int    `yaml:"reward_min_stars"`
	} `yaml:"game"`
}

// Load reads YAML config from path. A missing file yields the zero config,
// which runs the server on in-memory stores with the sample content.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
