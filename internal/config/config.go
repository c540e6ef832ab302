package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Neo4j graph store
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// External model API (OpenAI-compatible)
	AIBaseURL           string
	AIAPIKey            string
	EmbedModel          string
	GenerateModel       string
	VectorDim           int
	AIRequestsPerMinute int

	// Caller-enforced concurrency caps for external calls
	EmbedConcurrency    int
	GenerateConcurrency int

	// Worker webhook dispatch
	WorkerWebhookURL    string
	WorkerSigningSecret string
	IngestMaxFiles      int

	// Worker process
	WorkerPort         string
	WorkerLocalDataDir string

	// Chunking defaults forwarded to the worker
	ChunkTokens    int
	OverlapTokens  int
	MinChunkTokens int

	// Redis / Asynq
	RedisURL      string
	RedisPassword string
	RedisDB       int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		Neo4jURI:      getEnv("NEO4J_URI", ""),
		Neo4jUser:     firstEnv("NEO4J_USERNAME", "NEO4J_USER"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),

		AIBaseURL:           getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		EmbedModel:          getEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		GenerateModel:       getEnv("OPENAI_GENERATE_MODEL", "gpt-4o-mini"),
		VectorDim:           getEnvInt("VECTOR_DIM", 1536),
		AIRequestsPerMinute: getEnvInt("AI_REQUESTS_PER_MINUTE", 300),

		EmbedConcurrency:    getEnvInt("EMBED_CONCURRENCY", 8),
		GenerateConcurrency: getEnvInt("GENERATE_CONCURRENCY", 2),

		WorkerWebhookURL:    getEnv("WORKER_WEBHOOK_URL", "http://localhost:8090/worker/ingest"),
		WorkerSigningSecret: getEnv("WORKER_SIGNING_SECRET", ""),
		IngestMaxFiles:      getEnvInt("INGEST_MAX_FILES", 50),

		WorkerPort:         getEnv("WORKER_PORT", "8090"),
		WorkerLocalDataDir: getEnv("WORKER_LOCAL_DATA_DIR", "./data"),

		ChunkTokens:    getEnvInt("CHUNK_TOKENS", 600),
		OverlapTokens:  getEnvInt("OVERLAP_TOKENS", 80),
		MinChunkTokens: getEnvInt("MIN_CHUNK_TOKENS", 80),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}

	// Validate required fields
	if cfg.Neo4jURI == "" {
		return nil, fmt.Errorf("NEO4J_URI is required - set it in .env file")
	}

	if cfg.Neo4jPassword == "" {
		return nil, fmt.Errorf("NEO4J_PASSWORD is required - set it in .env file")
	}

	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required - set it in .env file")
	}

	if cfg.WorkerSigningSecret == "" {
		return nil, fmt.Errorf("WORKER_SIGNING_SECRET is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among the given keys.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
