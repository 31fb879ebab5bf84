package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// ServerConfig is what the host binary needs to boot.
// Merchant holds raw configuration overrides; they become a Configuration
// only after passing through FromMap.
type ServerConfig struct {
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	GCPProject string
	MerchantID string

	// GatewayBaseURL overrides the environment selected by the merchant mode flag.
	GatewayBaseURL string
	GatewayTimeout time.Duration
	RetryAttempts  int

	// RedisAddr enables the Redis payment registry when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// FixturesFile is the JSON document backing the static platform adapter.
	FixturesFile string

	Merchant map[string]any
}

// SecretAccessor is the part of the Secret Manager client Load needs.
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, name string) ([]byte, error)
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) then ENV vars, with merchant settings read
// from Secret Manager in production.
func Load(ctx context.Context) (*ServerConfig, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := fromEnv()
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" || cfg.MerchantID == "" {
			return nil, fmt.Errorf("GCP_PROJECT and MERCHANT_ID required in production environment")
		}
		accessor, closeFn, err := newSecretManagerAccessor(ctx)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		if err := cfg.loadMerchantSecret(ctx, accessor); err != nil {
			return nil, fmt.Errorf("loading merchant config: %w", err)
		}
		return cfg, nil
	}

	if raw := os.Getenv("MERCHANT_SETTINGS"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.Merchant); err != nil {
			return nil, fmt.Errorf("parsing MERCHANT_SETTINGS: %w", err)
		}
	}
	return cfg, nil
}

func fromEnv() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvString("PORT", "8080"),
		Environment:    getEnvString("ENVIRONMENT", "development"),
		LogLevel:       getEnvString("LOG_LEVEL", "info"),
		GCPProject:     os.Getenv("GCP_PROJECT"),
		MerchantID:     os.Getenv("MERCHANT_ID"),
		GatewayBaseURL: os.Getenv("GATEWAY_BASE_URL"),
		GatewayTimeout: time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 30)) * time.Second,
		RetryAttempts:  getEnvInt("GATEWAY_RETRY_ATTEMPTS", 2),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		FixturesFile:   getEnvString("FIXTURES_FILE", "fixtures.json"),
		Merchant:       map[string]any{},
	}
}

// loadFromFile reads all configuration from a JSON file.
func loadFromFile(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port                  string         `json:"port"`
		Environment           string         `json:"environment"`
		LogLevel              string         `json:"log_level"`
		GatewayBaseURL        string         `json:"gateway_base_url"`
		GatewayTimeoutSeconds int            `json:"gateway_timeout_seconds"`
		RetryAttempts         *int           `json:"retry_attempts"`
		RedisAddr             string         `json:"redis_addr"`
		RedisPassword         string         `json:"redis_password"`
		RedisDB               int            `json:"redis_db"`
		FixturesFile          string         `json:"fixtures_file"`
		Merchant              map[string]any `json:"merchant"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &ServerConfig{
		Port:           withDefault(fileConfig.Port, "8080"),
		Environment:    withDefault(fileConfig.Environment, "development"),
		LogLevel:       withDefault(fileConfig.LogLevel, "info"),
		GatewayBaseURL: fileConfig.GatewayBaseURL,
		GatewayTimeout: 30 * time.Second,
		RetryAttempts:  2,
		RedisAddr:      fileConfig.RedisAddr,
		RedisPassword:  fileConfig.RedisPassword,
		RedisDB:        fileConfig.RedisDB,
		FixturesFile:   withDefault(fileConfig.FixturesFile, "fixtures.json"),
		Merchant:       fileConfig.Merchant,
	}
	if fileConfig.GatewayTimeoutSeconds > 0 {
		cfg.GatewayTimeout = time.Duration(fileConfig.GatewayTimeoutSeconds) * time.Second
	}
	if fileConfig.RetryAttempts != nil {
		cfg.RetryAttempts = *fileConfig.RetryAttempts
	}
	if cfg.Merchant == nil {
		cfg.Merchant = map[string]any{}
	}
	return cfg, nil
}

// loadMerchantSecret fetches merchant settings stored as JSON.
// Secret name format: projects/{project}/secrets/{merchant_id}/versions/latest
func (c *ServerConfig) loadMerchantSecret(ctx context.Context, accessor SecretAccessor) error {
	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.GCPProject, c.MerchantID)

	data, err := accessor.AccessSecretVersion(ctx, secretName)
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}
	if err := json.Unmarshal(data, &c.Merchant); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

type secretManagerAccessor struct {
	client *secretmanager.Client
}

func newSecretManagerAccessor(ctx context.Context) (*secretManagerAccessor, func(), error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	return &secretManagerAccessor{client: client}, func() { _ = client.Close() }, nil
}

func (s *secretManagerAccessor) AccessSecretVersion(ctx context.Context, name string) ([]byte, error) {
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return result.Payload.Data, nil
}

func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

func getEnvString(key string, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
