package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/andresmejia3/ocrline/internal/ocr"
	"github.com/andresmejia3/ocrline/internal/source"
	"github.com/joho/godotenv"
)

type Config struct {
	// Engine
	Engine       string
	Lang         string
	Orientation  bool
	TessdataDir  string
	TesseractBin string

	// History database (empty disables history)
	DatabaseURL string

	// S3 image source
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
}

// Load reads an optional .env file (or the given files) and then the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	defaults := ocr.DefaultConfig()
	return &Config{
		Engine:       getEnv("OCRLINE_ENGINE", "tesseract"),
		Lang:         getEnv("OCRLINE_LANG", defaults.Lang),
		Orientation:  getBoolEnv("OCRLINE_ORIENTATION", defaults.Orientation),
		TessdataDir:  getEnv("OCRLINE_TESSDATA_DIR", ""),
		TesseractBin: getEnv("TESSERACT_BIN", "tesseract"),
		DatabaseURL:  databaseURL(),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Region:     getEnv("S3_REGION", ""),
		S3UseSSL:     getBoolEnv("S3_USE_SSL", false),
	}, nil
}

// OCR returns the engine settings.
func (c *Config) OCR() ocr.Config {
	return ocr.Config{
		Lang:        c.Lang,
		Orientation: c.Orientation,
		TessdataDir: c.TessdataDir,
	}
}

// S3 returns the object store settings.
func (c *Config) S3() source.S3Config {
	return source.S3Config{
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Region:    c.S3Region,
		UseSSL:    c.S3UseSSL,
	}
}

// databaseURL prefers DATABASE_URL, then builds one from POSTGRES_* variables.
// An empty result means history is disabled.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	name := os.Getenv("POSTGRES_DB")
	port := getEnv("POSTGRES_PORT", "5432")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
