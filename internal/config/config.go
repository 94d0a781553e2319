package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"westwise/internal/model"
)

// Config holds every runtime setting of the service.
type Config struct {
	Host            string
	Port            int
	Debug           bool
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	ModelPath         string
	ModelBackend      string // auto, onnx or opencv
	ModelVersion      string
	ONNXLibraryPath   string
	ONNXInputName     string
	ONNXOutputName    string
	Normalization     string // imagenet or efficientnet
	Handling          model.HandlingTable
	ClassNames        []string
	MaxFileSize       int64
	MaxImagePixels    int64
	AllowedExtensions []string

	LogLevel     string
	LogDirectory string

	DBDriver             string // sqlite, postgres or none
	DatabasePath         string
	DatabaseURL          string
	SaveUploads          bool
	ImageDirectory       string
	HistoryBufferLimit   int
	HistoryFlushInterval time.Duration
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are applied first and never override variables
// that are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnvAsInt("PORT", 8000),
		Debug:           getEnvAsBool("DEBUG", false),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"*"}),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		ModelPath:         getEnv("MODEL_PATH", filepath.Join(".", "model", "model_best.onnx")),
		ModelBackend:      strings.ToLower(getEnv("MODEL_BACKEND", "auto")),
		ModelVersion:      getEnv("MODEL_VERSION", "2.0.0"),
		ONNXLibraryPath:   getEnv("ONNX_LIBRARY_PATH", ""),
		ONNXInputName:     getEnv("ONNX_INPUT_NAME", ""),
		ONNXOutputName:    getEnv("ONNX_OUTPUT_NAME", ""),
		Normalization:     strings.ToLower(getEnv("NORMALIZATION", "imagenet")),
		Handling:          model.DefaultHandlingInstructions(),
		ClassNames:        model.CategoryNames(),
		MaxFileSize:       getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024),
		MaxImagePixels:    getEnvAsInt64("MAX_IMAGE_PIXELS", 178_956_970),
		AllowedExtensions: normalizeExtensions(getEnvAsList("ALLOWED_EXTENSIONS", []string{"jpg", "jpeg", "png", "gif", "bmp", "webp"})),

		LogLevel:     strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),

		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabasePath:         getEnv("DB_PATH", filepath.Join(".", "data", "predictions.db")),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SaveUploads:          getEnvAsBool("SAVE_UPLOADS", false),
		ImageDirectory:       getEnv("IMAGE_DIR", filepath.Join(".", "uploads")),
		HistoryBufferLimit:   getEnvAsInt("HISTORY_BUFFER_LIMIT", 256),
		HistoryFlushInterval: getEnvAsDuration("HISTORY_FLUSH_INTERVAL", 15*time.Second),
	}
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ExtensionAllowed reports whether ext (with or without the leading dot)
// is in the upload allow-list.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return false
	}
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// normalizeExtensions lower-cases extensions and strips their leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		out = append(out, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("30s") or a plain number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value and trims each entry.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
