package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvPathEnvVar = "GRID_SPLITTER_ENV"

	DefaultUpscaleScale        = 2
	DefaultUpscalePollInterval = 2 * time.Second
	DefaultUpscaleTimeout      = 5 * time.Minute
	DefaultJPEGQuality         = 100
	DefaultS3Region            = "us-east-1"
)

type LoadOptions struct {
	EnvPathOverride  string
	LogLevelOverride string
}

// Upscale holds the remote upscaler settings. An empty APIURL or APIKey
// disables upscaling.
type Upscale struct {
	APIURL       string
	APIKey       string
	Scale        int
	PollInterval time.Duration
	Timeout      time.Duration
}

func (u Upscale) Enabled() bool {
	return u.APIURL != "" && u.APIKey != ""
}

// Bucket holds the optional S3-compatible tile destination.
type Bucket struct {
	Name      string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

func (b Bucket) Enabled() bool {
	return b.Name != ""
}

type Config struct {
	EnvPath     string
	LogLevel    string
	LogFile     string
	JPEGQuality int
	Upscale     Upscale
	Bucket      Bucket
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Priority: explicit --env file, GRID_SPLITTER_ENV, then .env beside
	// the executable. Process environment wins over file values.
	envPath := resolveEnvPath(opts)
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	cfg := &Config{
		EnvPath:     envPath,
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		LogFile:     os.Getenv("LOG_FILE"),
		JPEGQuality: clampQuality(getIntEnv("JPEG_QUALITY", DefaultJPEGQuality)),
		Upscale: Upscale{
			APIURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("UPSCALE_API_URL")), "/"),
			APIKey:       strings.TrimSpace(os.Getenv("UPSCALE_API_KEY")),
			Scale:        getIntEnv("UPSCALE_SCALE", DefaultUpscaleScale),
			PollInterval: getDurationEnv("UPSCALE_POLL_INTERVAL", DefaultUpscalePollInterval),
			Timeout:      getDurationEnv("UPSCALE_TIMEOUT", DefaultUpscaleTimeout),
		},
		Bucket: Bucket{
			Name:      strings.TrimSpace(os.Getenv("S3_BUCKET")),
			Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:    getEnvWithDefault("S3_REGION", DefaultS3Region),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}

	if override := strings.TrimSpace(opts.LogLevelOverride); override != "" {
		cfg.LogLevel = override
	}

	return cfg, nil
}

// executableDir is replaced in tests.
var executableDir = func() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(execPath), nil
}

func resolveEnvPath(opts LoadOptions) string {
	candidates := []string{
		strings.TrimSpace(opts.EnvPathOverride),
		strings.TrimSpace(os.Getenv(EnvPathEnvVar)),
	}
	if dir, err := executableDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("1500ms") or plain seconds ("3").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
