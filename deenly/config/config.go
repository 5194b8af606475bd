package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	LogDir string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret string
	// JWKSURL, when set, also accepts tokens signed by the external auth provider.
	JWKSURL     string
	CORSOrigins []string

	LLMBackend string // "openai" or "ollama"
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	DailyQuestionLimit int

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	TraceFile string
}

func LoadConfig() Config {
	// a missing .env is fine, the environment wins anyway
	_ = godotenv.Load()

	backend := getEnv("LLM_BACKEND", "openai")
	return Config{
		Port:               getEnv("PORT", "8000"),
		LogDir:             getEnv("LOG_DIR", "./logs"),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBName:             getEnv("DB_NAME", "deenly"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWKSURL:            getEnv("JWKS_URL", ""),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		LLMBackend:         backend,
		LLMBaseURL:         getEnv("LLM_BASE_URL", defaultBaseURL(backend)),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", defaultModel(backend)),
		DailyQuestionLimit: getEnvInt("DAILY_QUESTION_LIMIT", 30),
		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:        getEnv("MINIO_BUCKET", "deenly-exports"),
		MinIOUseSSL:        getEnv("MINIO_USE_SSL", "false") == "true",
		TraceFile:          getEnv("TRACE_FILE", ""),
	}
}

func defaultBaseURL(backend string) string {
	if backend == "ollama" {
		return "http://localhost:11434/api"
	}
	return "https://api.openai.com/v1"
}

func defaultModel(backend string) string {
	if backend == "ollama" {
		return "llama3:8b"
	}
	return "gpt-4o-mini"
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
