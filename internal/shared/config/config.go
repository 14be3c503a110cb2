package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zii786/pitchframe/internal/scoring"
)

// Config holds application configuration.
type Config struct {
	Port            string   `validate:"required,numeric"`
	CORSAllowOrigin []string `validate:"dive,required"`
	ObjectStoreType string   `validate:"oneof=local s3 minio"`
	LocalStoreDir   string   `validate:"required_if=ObjectStoreType local"`
	AWSRegion       string
	S3Bucket        string `validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string `validate:"required_if=ObjectStoreType minio"`
	MinioAccessKey  string `validate:"required_if=ObjectStoreType minio"`
	MinioSecretKey  string `validate:"required_if=ObjectStoreType minio"`
	MinioBucket     string `validate:"required_if=ObjectStoreType minio"`
	MinioUseSSL     bool

	DatabaseURL string
	Env         string `validate:"oneof=production staging local dev"`
	LogLevel    string `validate:"omitempty,oneof=debug info warn error"`
	DevMode     bool
	DebugMode   bool

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	ScoringStrategy  string `validate:"omitempty,oneof=heuristic mock openai anthropic gemini"`
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GeminiAPIKey     string
	LLMModel         string
	LLMEndpoint      string        `validate:"omitempty,url"`
	AnalysisTimeout  time.Duration `validate:"gt=0"`
	MaxContentLength int           `validate:"gt=0"`
	MockSeed         int64

	RedisURL    string
	LLMCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SQSQueueURL             string
	SQSRegion               string
	WorkerConcurrency       int           `validate:"gte=1,lte=64"`
	WorkerVisibilityTimeout time.Duration `validate:"gte=0"`

	// ProcessAsync runs queue-less pitch processing in a goroutine; when false
	// the submitting request waits for it.
	ProcessAsync bool
	AutoMigrate  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", ""),
		MinioUseSSL:     getBool("MINIO_USE_SSL", false),

		DatabaseURL: dbURL,
		Env:         env,
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DevMode:     getBool("DEV_MODE", env == "dev"),
		DebugMode:   getBool("DEBUG_MODE", false),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),

		ScoringStrategy:  strings.ToLower(getEnv("SCORING_STRATEGY", getEnv("USE_AI_SERVICE", "heuristic"))),
		OpenAIAPIKey:     apiKey("OPENAI_API_KEY"),
		AnthropicAPIKey:  apiKey("ANTHROPIC_API_KEY"),
		GeminiAPIKey:     apiKey("GEMINI_API_KEY"),
		LLMModel:         getEnv("LLM_MODEL", ""),
		LLMEndpoint:      getEnv("LLM_ENDPOINT", ""),
		AnalysisTimeout:  time.Duration(getInt("ANALYSIS_TIMEOUT_MS", 30000)) * time.Millisecond,
		MaxContentLength: getInt("MAX_CONTENT_LENGTH", scoring.DefaultMaxPromptChars),
		MockSeed:         int64(getInt("MOCK_SEED", 0)),

		RedisURL:    getEnv("REDIS_URL", ""),
		LLMCacheTTL: time.Duration(getInt("LLM_CACHE_TTL_SECONDS", 86400)) * time.Second,

		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "pitch.status"),

		SQSQueueURL:             getEnv("SQS_QUEUE_URL", ""),
		SQSRegion:               getEnv("SQS_REGION", getEnv("AWS_REGION", "")),
		WorkerConcurrency:       getInt("WORKER_CONCURRENCY", 4),
		WorkerVisibilityTimeout: time.Duration(getInt("WORKER_VISIBILITY_TIMEOUT_SECONDS", 300)) * time.Second,

		ProcessAsync: getBool("PROCESS_ASYNC", true),
		AutoMigrate:  getBool("AUTO_MIGRATE", env != "production"),
	}
}

var validate = validator.New()

// Validate checks the loaded values for internal consistency.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Scoring builds the per-call scoring configuration. An external strategy
// without a usable key degrades to the heuristic strategy.
func (c Config) Scoring() scoring.ScoringConfig {
	strategy, err := scoring.ParseStrategy(c.ScoringStrategy)
	if err != nil {
		log.Printf("unknown SCORING_STRATEGY %q, using heuristic", c.ScoringStrategy)
		strategy = scoring.StrategyHeuristic
	}

	key := ""
	switch strategy {
	case scoring.StrategyOpenAI:
		key = c.OpenAIAPIKey
	case scoring.StrategyAnthropic:
		key = c.AnthropicAPIKey
	case scoring.StrategyGemini:
		key = c.GeminiAPIKey
	}
	if strategy.External() && key == "" {
		log.Printf("SCORING_STRATEGY=%s has no API key configured, using heuristic", strategy)
		strategy = scoring.StrategyHeuristic
	}

	return scoring.ScoringConfig{
		Strategy:       strategy,
		APIKey:         key,
		Model:          c.LLMModel,
		Endpoint:       c.LLMEndpoint,
		Timeout:        c.AnalysisTimeout,
		MaxPromptChars: c.MaxContentLength,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// apiKey treats template placeholders such as "your-openai-api-key-here" as unset.
func apiKey(name string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if strings.HasPrefix(strings.ToLower(v), "your-") {
		log.Printf("%s looks like a placeholder, ignoring it", name)
		return ""
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}
