package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Mongo    MongoConfig    `yaml:"mongo"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Trackerd TrackerdConfig `yaml:"trackerd"`
}

type MongoConfig struct {
	URI    string `yaml:"uri"`
	DBName string `yaml:"name"`
}

// DatabaseConfig is the Postgres connection for the movement audit log.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                 string `yaml:"host"`
	Port                 int    `yaml:"port"`
	ReportsTopicName     string `yaml:"reports_topic_name"`
	WorkerConsumerGroup  string `yaml:"worker_consumer_group"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TrackerdConfig struct {
	HTTPAddr        string `yaml:"http_addr"`
	StateTTLSeconds int    `yaml:"state_ttl_seconds"`

	WorkerHTTPAddr              string `yaml:"worker_http_addr"`
	WorkerSweepIntervalSeconds  int    `yaml:"worker_sweep_interval_seconds"`
	WorkerSweepConcurrency      int    `yaml:"worker_sweep_concurrency"`

	// Geocoder selects the reverse-geocoding backend: "nominatim", "google"
	// or "fake" (default).
	GeocoderProvider             string `yaml:"geocoder_provider"`
	GeocoderBaseURL              string `yaml:"geocoder_base_url"`
	GeocoderAPIKey               string `yaml:"geocoder_api_key"`
	GeocoderUserAgent            string `yaml:"geocoder_user_agent"`
	GeocoderRateLimitPerMinute   int    `yaml:"geocoder_rate_limit_per_minute"`

	// FCMServiceAccountEnv names the env var holding the base64-encoded
	// service account JSON. Empty means push notifications use the fake.
	FCMServiceAccountEnv string `yaml:"fcm_service_account_env"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
