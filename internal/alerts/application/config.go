package application

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PushoverConfig holds Pushover credentials.
type PushoverConfig struct {
	Token   string `yaml:"token"`
	User    string `yaml:"user"`
	Device  string `yaml:"device"`
	BaseURL string `yaml:"base_url"`
}

// Config defines alerting and notification configuration.
type Config struct {
	RepeatInterval time.Duration
	Pushover       PushoverConfig
	TitleTemplate  string
	BodyTemplate   string
}

type fileConfig struct {
	RepeatInterval string         `yaml:"repeat_interval"`
	Pushover       PushoverConfig `yaml:"pushover"`
	TitleTemplate  string         `yaml:"title_template"`
	BodyTemplate   string         `yaml:"body_template"`
}

// LoadConfig loads alerting config from yaml or env. The yaml file named
// by ALERTS_CONFIG wins over individual env vars.
func LoadConfig() (Config, error) {
	cfg := Config{
		RepeatInterval: getenvDuration("ALERT_REPEAT_INTERVAL", 0),
		Pushover: PushoverConfig{
			Token:  os.Getenv("PUSHOVER_TOKEN"),
			User:   os.Getenv("PUSHOVER_USER"),
			Device: os.Getenv("PUSHOVER_DEVICE"),
		},
	}

	if path := os.Getenv("ALERTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		if file.RepeatInterval != "" {
			parsed, err := time.ParseDuration(file.RepeatInterval)
			if err != nil {
				return cfg, err
			}
			cfg.RepeatInterval = parsed
		}
		if file.Pushover.Token != "" {
			cfg.Pushover.Token = file.Pushover.Token
		}
		if file.Pushover.User != "" {
			cfg.Pushover.User = file.Pushover.User
		}
		if file.Pushover.Device != "" {
			cfg.Pushover.Device = file.Pushover.Device
		}
		if file.Pushover.BaseURL != "" {
			cfg.Pushover.BaseURL = file.Pushover.BaseURL
		}
		cfg.TitleTemplate = file.TitleTemplate
		cfg.BodyTemplate = file.BodyTemplate
	}
	return cfg, nil
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
