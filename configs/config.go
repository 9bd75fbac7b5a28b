package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPServerAddress    string   `mapstructure:"HTTP_SERVER_ADDRESS"`
	MetricsServerAddress string   `mapstructure:"METRICS_SERVER_ADDRESS"`
	DatabaseURL          string   `mapstructure:"DATABASE_URL"`
	RedisAddress         string   `mapstructure:"REDIS_ADDRESS"`
	RedisPassword        string   `mapstructure:"REDIS_PASSWORD"`
	PreferenceCacheTTL   int      `mapstructure:"PREFERENCE_CACHE_TTL_SECONDS"`
	WorkerPoolSize       int      `mapstructure:"WORKER_POOL_SIZE"`
	SendTimeoutSeconds   int      `mapstructure:"SEND_TIMEOUT_SECONDS"`
	KafkaBrokers         []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic           string   `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID         string   `mapstructure:"KAFKA_GROUP_ID"`
	KafkaDLQTopic        string   `mapstructure:"KAFKA_DLQ_TOPIC"`
	EmailHost            string   `mapstructure:"EMAIL_HOST"`
	EmailPort            int      `mapstructure:"EMAIL_PORT"`
	EmailUsername        string   `mapstructure:"EMAIL_USERNAME"`
	EmailPassword        string   `mapstructure:"EMAIL_PASSWORD"`
	EmailEncryption      string   `mapstructure:"EMAIL_ENCRYPTION"`
	EmailFromAddress     string   `mapstructure:"EMAIL_FROM_ADDRESS"`
	EmailFromName        string   `mapstructure:"EMAIL_FROM_NAME"`
	SMSEnabled           bool     `mapstructure:"SMS_ENABLED"`
	SMSGatewayURL        string   `mapstructure:"SMS_GATEWAY_URL"`
	SMSGatewayAPIKey     string   `mapstructure:"SMS_GATEWAY_API_KEY"`
	SMSSenderID          string   `mapstructure:"SMS_SENDER_ID"`
	PushEnabled          bool     `mapstructure:"PUSH_ENABLED"`
	PushGatewayURL       string   `mapstructure:"PUSH_GATEWAY_URL"`
	PushGatewayAPIKey    string   `mapstructure:"PUSH_GATEWAY_API_KEY"`
	OtelEndpoint         string   `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelInsecure         bool     `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelServiceName      string   `mapstructure:"OTEL_SERVICE_NAME"`
}

// EmailConf groups the SMTP transport settings consumed by the email sender.
type EmailConf struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Encryption  string
	FromAddress string
	FromName    string
}

// DispatchConf groups the settings consumed by the dispatch use case.
type DispatchConf struct {
	WorkerPoolSize     int
	SendTimeoutSeconds int
}

var cfg *Config

func NewConfig(path string) (*Config, error) {
	relativeUrl, err := GetBasePath(path)
	if err != nil {
		return nil, fmt.Errorf("error getting base path: %v", err)
	}

	vip := viper.New()
	vip.SetConfigType("env")
	vip.SetConfigName(".env")
	vip.AddConfigPath(relativeUrl)
	vip.AutomaticEnv()

	if err := vip.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	vip.BindEnv("HTTP_SERVER_ADDRESS")
	vip.BindEnv("METRICS_SERVER_ADDRESS")
	vip.BindEnv("DATABASE_URL")
	vip.BindEnv("REDIS_ADDRESS")
	vip.BindEnv("REDIS_PASSWORD")
	vip.BindEnv("PREFERENCE_CACHE_TTL_SECONDS")
	vip.BindEnv("WORKER_POOL_SIZE")
	vip.BindEnv("SEND_TIMEOUT_SECONDS")
	vip.BindEnv("KAFKA_BROKERS")
	vip.BindEnv("KAFKA_TOPIC")
	vip.BindEnv("KAFKA_GROUP_ID")
	vip.BindEnv("KAFKA_DLQ_TOPIC")
	vip.BindEnv("EMAIL_HOST")
	vip.BindEnv("EMAIL_PORT")
	vip.BindEnv("EMAIL_USERNAME")
	vip.BindEnv("EMAIL_PASSWORD")
	vip.BindEnv("EMAIL_ENCRYPTION")
	vip.BindEnv("EMAIL_FROM_ADDRESS")
	vip.BindEnv("EMAIL_FROM_NAME")
	vip.BindEnv("SMS_ENABLED")
	vip.BindEnv("SMS_GATEWAY_URL")
	vip.BindEnv("SMS_GATEWAY_API_KEY")
	vip.BindEnv("SMS_SENDER_ID")
	vip.BindEnv("PUSH_ENABLED")
	vip.BindEnv("PUSH_GATEWAY_URL")
	vip.BindEnv("PUSH_GATEWAY_API_KEY")
	vip.BindEnv("OTEL_EXPORTER_OTLP_ENDPOINT")
	vip.BindEnv("OTEL_EXPORTER_OTLP_INSECURE")
	vip.BindEnv("OTEL_SERVICE_NAME")

	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %v", err)
	}

	if !vip.IsSet("otel_exporter_otlp_insecure") {
		cfg.OtelInsecure = false
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	if cfg.SendTimeoutSeconds <= 0 {
		cfg.SendTimeoutSeconds = 10
	}
	if cfg.PreferenceCacheTTL <= 0 {
		cfg.PreferenceCacheTTL = 60
	}

	return cfg, nil
}

func GetBasePath(path string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return filepath.Join(cwd, path), nil
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			return "", errors.New("go.mod not found")
		}
		cwd = parent
	}
}

func GetConfig() *Config {
	return cfg
}

// GetEmailConf projects the SMTP transport settings out of the full config.
func GetEmailConf(c *Config) *EmailConf {
	if c == nil {
		return &EmailConf{}
	}

	return &EmailConf{
		Host:        c.EmailHost,
		Port:        c.EmailPort,
		Username:    c.EmailUsername,
		Password:    c.EmailPassword,
		Encryption:  c.EmailEncryption,
		FromAddress: c.EmailFromAddress,
		FromName:    c.EmailFromName,
	}
}

func GetDispatchConf() *DispatchConf {
	return &DispatchConf{
		WorkerPoolSize:     cfg.WorkerPoolSize,
		SendTimeoutSeconds: cfg.SendTimeoutSeconds,
	}
}

// SetTestConfig allows tests to set the global config variable directly.
func SetTestConfig(testCfg *Config) {
	cfg = testCfg
}
