package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server wires up at boot. All values come from
// the environment; .env is loaded for local runs and ignored in production.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	RedisAddr string

	JWTSecret string

	GCSBucket string

	TranscribeStream  string
	TranscribeGroup   string
	TranscribeWorkers int

	AI AIConfig
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "entwine"),
		RedisAddr: stripRedisScheme(getEnv("REDIS_URI", "localhost:6379")),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		GCSBucket: getEnv("GCS_BUCKET", "entwine-voice-notes"),

		TranscribeStream:  getEnv("TRANSCRIBE_STREAM", "transcribe:stream"),
		TranscribeGroup:   getEnv("TRANSCRIBE_GROUP", "transcribe-workers"),
		TranscribeWorkers: getEnvInt("TRANSCRIBE_WORKERS", 4),

		AI: LoadAIConfig(),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func stripRedisScheme(addr string) string {
	if len(addr) > 8 && addr[:8] == "redis://" {
		return addr[8:]
	}
	return addr
}
