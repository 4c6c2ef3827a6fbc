package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	// Google Cloud project; empty means local mode (SQLite + disk blobs)
	ProjectID     string
	StorageBucket string

	// Credentials file for the admin SDK; falls back to application
	// default credentials, then Secret Manager
	CredentialsFile string

	// Local mode
	DatabasePath string
	BlobDir      string

	// Bulk writes per committed batch; must stay under the store's
	// hard cap of 500
	BatchLimit int

	// Auth uids/emails that erase and delete operations never touch
	PreservedAdmins []string

	// Rate limiting for the admin API
	RateLimitRPS   float64
	RateLimitBurst int

	// Server
	Port string
}

var globalConfig *Config

// ResetForTesting resets the global config - used only in tests
func ResetForTesting() {
	globalConfig = nil
}

// Load loads configuration from environment variables
func Load() *Config {
	if globalConfig != nil {
		return globalConfig
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")

	globalConfig = &Config{
		ProjectID:       projectID,
		StorageBucket:   getEnvOrDefault("STORAGE_BUCKET", defaultBucket(projectID)),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		DatabasePath: getEnvOrDefault("DATABASE_PATH", "./amanah.db"),
		BlobDir:      getEnvOrDefault("BLOB_DIR", "./blobs"),

		BatchLimit:      parseInt(os.Getenv("BATCH_LIMIT"), 400),
		PreservedAdmins: parseList(os.Getenv("PRESERVED_ADMINS")),

		RateLimitRPS:   parseFloat(os.Getenv("RATE_LIMIT_RPS"), 5),
		RateLimitBurst: parseInt(os.Getenv("RATE_LIMIT_BURST"), 10),

		Port: getEnvOrDefault("PORT", "8080"),
	}

	return globalConfig
}

// Get returns the current configuration
func Get() *Config {
	if globalConfig == nil {
		return Load()
	}
	return globalConfig
}

// CloudMode reports whether the app talks to the hosted backends
// rather than the local SQLite/disk ones.
func (c *Config) CloudMode() bool {
	return c.ProjectID != ""
}

func defaultBucket(projectID string) string {
	if projectID == "" {
		return ""
	}
	return projectID + ".appspot.com"
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return parsed
	}
	return defaultValue
}

func parseFloat(value string, defaultValue float64) float64 {
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return parsed
	}
	return defaultValue
}

func parseList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
