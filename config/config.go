package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
	LLMProvider  string
	LLMModel     string
	LLMAPIURL    string
	SettingsPath string
	LogDir       string
	ContextLimit int
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		HTTPPort:     getEnv("HTTP_PORT", "8086"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		LLMProvider:  getEnv("LLM_PROVIDER", "openai"),
		LLMModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIURL:    getEnv("LLM_API_URL", ""),
		SettingsPath: getEnv("SETTINGS_PATH", "settings.json"),
		LogDir:       getEnv("LOG_DIR", "logs/knowbase"),
		ContextLimit: getEnvAsInt("CONTEXT_LIMIT", 10),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
