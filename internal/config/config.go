package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type IBConfig struct {
	Env          string `yaml:"env" env:"IB_ENV" env-default:"local"`
	GRPCServer   `yaml:"grpc_server"`
	HTTPServer   `yaml:"http_server"`
	IBDB         `yaml:"ib_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Commission   `yaml:"commission"`
	Reconcile    `yaml:"reconcile"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50061"`
}

type HTTPServer struct {
	Host           string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port           string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"30s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
}

type IBDB struct {
	Driver         string `yaml:"driver" env:"IB_DB_DRIVER" env-default:"postgres"`
	Dsn            string `yaml:"dsn" env:"IB_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"IB_MIGRATIONS_PATH"`
}

type LogConfig struct {
	LogLevel   string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat  string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput  string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"30"`
	Compress   bool   `yaml:"compress"`
}

type KafkaService struct {
	Enabled         bool   `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Host            string `yaml:"host" env:"KAFKA_HOST"`
	Port            string `yaml:"port" env:"KAFKA_PORT"`
	GroupID         string `yaml:"group_id" env-default:"ib-commission-service"`
	TradeTopic      string `yaml:"trade_topic" env-default:"trade-volume-events"`
	IBRequestTopic  string `yaml:"ib_request_topic" env-default:"ib-request-events"`
	WithdrawalTopic string `yaml:"withdrawal_topic" env-default:"withdrawal-events"`
}

type Commission struct {
	MaxResidualLevels int `yaml:"max_residual_levels" env-default:"10"`
	MaxTreeDepth      int `yaml:"max_tree_depth" env-default:"50"`
}

type Reconcile struct {
	Enabled    bool          `yaml:"enabled" env:"RECONCILE_ENABLED"`
	Interval   time.Duration `yaml:"interval" env-default:"24h"`
	StaleAfter time.Duration `yaml:"stale_after" env-default:"30m"`
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

// Load reads the YAML file at path, then applies environment overrides.
func Load(path string) (*IBConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg IBConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *IBConfig {
	configPath := os.Getenv("IB_CONFIG_PATH")
	if configPath == "" {
		log.Fatalf("IB_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return cfg
}

func (c *IBConfig) validate() error {
	switch c.IBDB.Driver {
	case "postgres":
		if c.IBDB.Dsn == "" {
			return fmt.Errorf("ib_db.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown ib_db.driver %q", c.IBDB.Driver)
	}
	if c.KafkaService.Enabled && (c.KafkaService.Host == "" || c.KafkaService.Port == "") {
		return fmt.Errorf("kafka-service host and port are required when kafka is enabled")
	}
	if c.Commission.MaxResidualLevels < 1 {
		return fmt.Errorf("commission.max_residual_levels must be positive")
	}
	if c.Commission.MaxTreeDepth < 1 {
		return fmt.Errorf("commission.max_tree_depth must be positive")
	}
	return nil
}
