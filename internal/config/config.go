package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shouni/gemini-tryon-kit/pkg/generator"
	"github.com/shouni/gemini-tryon-kit/pkg/pipeline"
)

const (
	defaultImageModel = "gemini-2.5-flash-image"
	defaultJSONModel  = "gemini-2.5-flash"
)

type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiJSONModel  string
	GeminiAPIVersion string

	ExtractionMode     generator.Mode
	CompressionQuality int
	FallbackProductURL string

	RequestTimeout time.Duration
	HTTPTimeout    time.Duration
	MaxUploadBytes int64

	AllowPrivateFetch bool

	Port     string
	LogLevel string
}

// LoadDotEnv は .env を読み込みます。ファイルが無い場合は何もしません。
func LoadDotEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func Load() (Config, error) {
	cfg := Config{
		GeminiModel:        getEnv("GEMINI_MODEL", defaultImageModel),
		GeminiJSONModel:    getEnv("GEMINI_JSON_MODEL", defaultJSONModel),
		GeminiAPIVersion:   getEnv("GEMINI_API_VERSION", "v1beta"),
		CompressionQuality: getEnvInt("TRYON_COMPRESSION_QUALITY", 0),
		FallbackProductURL: getEnv("PRODUCT_FALLBACK_IMAGE_URL", pipeline.DefaultFallbackProductURL),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 20)) * time.Second,
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		AllowPrivateFetch:  getEnvBool("ALLOW_PRIVATE_FETCH", false),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	mode, err := generator.ParseMode(getEnv("TRYON_EXTRACTION_MODE", string(generator.ModeLenient)))
	if err != nil {
		return Config{}, fmt.Errorf("TRYON_EXTRACTION_MODE: %w", err)
	}
	cfg.ExtractionMode = mode

	if cfg.CompressionQuality < 0 || cfg.CompressionQuality > 100 {
		cfg.CompressionQuality = 0
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = pipeline.DefaultTimeout
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
