package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig is read from the environment when the API server starts.
type ServerConfig struct {
	Port            int
	DatabaseURL     string // optional; in-memory only when empty
	ParserURL       string // optional external document parser
	ParserTimeout   time.Duration
	GeminiAPIKey    string // optional; used for uploads when ParserURL is empty
	GeminiModel     string
	CORSOrigins     []string
	LogFile         string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	SecureCookies   bool
}

// LoadServerConfig reads PORT, DATABASE_URL, PARSER_URL, PARSER_TIMEOUT_SECONDS,
// GEMINI_API_KEY, GEMINI_MODEL, CORS_ORIGINS, HIRETREE_LOG_FILE, HIRETREE_LOG_LEVEL and SECURE_COOKIES.
func LoadServerConfig() (*ServerConfig, error) {
	port, err := getEnvInt("PORT", 8000)
	if err != nil {
		return nil, err
	}
	parserTimeout, err := getEnvInt("PARSER_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Port:            port,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ParserURL:       os.Getenv("PARSER_URL"),
		ParserTimeout:   time.Duration(parserTimeout) * time.Second,
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		LogFile:         os.Getenv("HIRETREE_LOG_FILE"),
		LogLevel:        parseLogLevel(getEnv("HIRETREE_LOG_LEVEL", "INFO")),
		ShutdownTimeout: 10 * time.Second,
		SecureCookies:   getEnv("SECURE_COOKIES", "false") == "true",
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) normalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.ParserTimeout <= 0 {
		return fmt.Errorf("PARSER_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// Addr is the listen address.
func (c *ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
