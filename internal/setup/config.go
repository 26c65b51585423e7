package setup

import (
	"os"
	"strconv"
	"time"
)

const (
	ProviderContentSafety = "contentsafety"
	ProviderBedrock       = "bedrock"

	SecretsEnv = "env"
	SecretsAWS = "aws"
)

// Config is the process environment. Secrets are not read here; they are
// resolved through the secrets provider during Wire.
type Config struct {
	ClassifierProvider    string
	ContentSafetyEndpoint string
	RequestTimeout        time.Duration

	AWSRegion     string
	ClaudeModelID string

	SecretsProvider string
	AWSSecretPrefix string

	LogAnalyticsWorkspaceID string
	LogType                 string

	OTLPEndpoint string
	OTLPInsecure bool

	RedisAddr     string
	RedisPassword string
	ResultsStream string
	StreamMaxLen  int64

	RequestStream string
	ConsumerGroup string
	ConsumerName  string

	APIPort string

	DatabaseURL string

	CheckerConfigPath string
	LogLevel          string
}

func LoadConfig() *Config {
	return &Config{
		ClassifierProvider:      getEnv("CLASSIFIER_PROVIDER", ProviderContentSafety),
		ContentSafetyEndpoint:   getEnv("CONTENT_SAFETY_ENDPOINT", ""),
		RequestTimeout:          getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:           getEnv("CLAUDE_MODEL_ID", ""),
		SecretsProvider:         getEnv("SECRETS_PROVIDER", SecretsEnv),
		AWSSecretPrefix:         getEnv("AWS_SECRET_PREFIX", "bandcheck/"),
		LogAnalyticsWorkspaceID: getEnv("LOG_ANALYTICS_WORKSPACE_ID", ""),
		LogType:                 getEnv("LOG_TYPE", "RockBandNameChecks"),
		OTLPEndpoint:            getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:            getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		ResultsStream:           getEnv("RESULTS_STREAM", ""),
		StreamMaxLen:            int64(getEnvInt("RESULTS_STREAM_MAXLEN", 10000)),
		RequestStream:           getEnv("REQUEST_STREAM", "band-name-requests"),
		ConsumerGroup:           getEnv("CONSUMER_GROUP", "band-name-checkers"),
		ConsumerName:            getEnv("CONSUMER_NAME", defaultConsumerName()),
		APIPort:                 getEnv("BANDCHECK_API_PORT", "18081"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		CheckerConfigPath:       getEnv("CHECKER_CONFIG_PATH", ""),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "bandcheck-worker"
	}
	return "bandcheck-" + host
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}
