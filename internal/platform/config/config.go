package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `yaml:"serviceName"`
	HTTPPort     string   `yaml:"httpPort"`
	MetricsPort  string   `yaml:"metricsPort"`
	PostgresDSN  string   `yaml:"postgresDSN"`
	KafkaBrokers []string `yaml:"kafkaBrokers"`

	TokenName     string `yaml:"tokenName"`
	TokenSymbol   string `yaml:"tokenSymbol"`
	InitialSupply string `yaml:"initialSupply"`
	OwnerAddress  string `yaml:"ownerAddress"`

	EnableOutboxRelay bool `yaml:"enableOutboxRelay"`
	EnableSwaggerUI   bool `yaml:"enableSwaggerUI"`
}

// Load reads an optional YAML file named by CONFIG_FILE, then applies
// environment overrides on top.
func Load() (Config, error) {
	cfg := Config{
		ServiceName:       "custodia",
		HTTPPort:          "8080",
		MetricsPort:       "9090",
		TokenName:         "Custodia Token",
		TokenSymbol:       "CSTD",
		InitialSupply:     "0",
		EnableOutboxRelay: true,
		EnableSwaggerUI:   true,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyString(&cfg.ServiceName, "SERVICE_NAME")
	applyString(&cfg.HTTPPort, "HTTP_PORT")
	applyString(&cfg.MetricsPort, "METRICS_PORT")
	applyString(&cfg.PostgresDSN, "POSTGRES_DSN")
	applyString(&cfg.TokenName, "TOKEN_NAME")
	applyString(&cfg.TokenSymbol, "TOKEN_SYMBOL")
	applyString(&cfg.InitialSupply, "INITIAL_SUPPLY")
	applyString(&cfg.OwnerAddress, "OWNER_ADDRESS")

	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		var brokers []string
		for _, value := range strings.Split(raw, ",") {
			value = strings.TrimSpace(value)
			if value != "" {
				brokers = append(brokers, value)
			}
		}
		cfg.KafkaBrokers = brokers
	}
	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}

	cfg.EnableOutboxRelay = envBool("ENABLE_OUTBOX_RELAY", cfg.EnableOutboxRelay)
	cfg.EnableSwaggerUI = envBool("ENABLE_SWAGGER_UI", cfg.EnableSwaggerUI)

	return cfg, nil
}

func applyString(target *string, name string) {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		*target = value
	}
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
