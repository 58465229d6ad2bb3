package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JWTSecret     string
	MongoURI      string
	DBName        string
	SkipAuth      bool
	Environment   string
	AppId         string
	QuarantineDir string // Physical directory for not-yet-reviewed uploads
	PublishedDir  string // Physical directory for approved files, partitioned by class
	MaxUploadMB   int64  // Intake rejects payloads above this limit
	SweepSchedule string // Cron expression for the reconciliation sweep
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "classhub"),
		SkipAuth:      getEnv("SKIP_AUTH", "false") == "true",
		Environment:   getEnv("ENVIRONMENT", "development"),
		AppId:         getEnv("APP_ID", "classhub"),
		QuarantineDir: getEnv("QUARANTINE_PATH", "./data/quarantine"),
		PublishedDir:  getEnv("PUBLISHED_PATH", "./data/published"),
		MaxUploadMB:   getEnvInt("MAX_UPLOAD_MB", 50),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@hourly"),
	}, nil
}

// MaxUploadBytes returns the intake size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}
