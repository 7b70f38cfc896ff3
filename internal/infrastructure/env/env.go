package env

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aura-runtime/internal/application/port/output"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var _ output.ConfigPort = (*EnvService)(nil)

// Keys.
const (
	KeyAPIURL             = "api_url"
	KeyHeadless           = "headless"
	KeyStorePath          = "store_path"
	KeyLogLevel           = "log_level"
	KeyLogFile            = "log_file"
	KeyListenAddr         = "listen_addr"
	KeyRageClickThreshold = "rage_click_threshold"
	KeyRageClickWindow    = "rage_click_window"
	KeyPrefetchDelay      = "prefetch_delay"
	KeyPrefetchRate       = "prefetch_rate"
	KeyViewportWidth      = "viewport_width"
	KeyViewportHeight     = "viewport_height"
	KeyAutoAdapt          = "auto_adapt"
)

var defaults = map[string]any{
	KeyAPIURL:             "http://localhost:8000",
	KeyHeadless:           true,
	KeyStorePath:          "aura.db",
	KeyLogLevel:           "info",
	KeyLogFile:            "",
	KeyListenAddr:         "",
	KeyRageClickThreshold: 3,
	KeyRageClickWindow:    2 * time.Second,
	KeyPrefetchDelay:      750 * time.Millisecond,
	KeyPrefetchRate:       2.0,
	KeyViewportWidth:      1280,
	KeyViewportHeight:     720,
	KeyAutoAdapt:          false,
}

// Settings is the typed view of the configuration.
type Settings struct {
	APIURL             string
	Headless           bool
	StorePath          string
	LogLevel           string
	LogFile            string
	ListenAddr         string
	RageClickThreshold int
	RageClickWindow    time.Duration
	PrefetchDelay      time.Duration
	PrefetchRate       float64
	ViewportWidth      int
	ViewportHeight     int
	AutoAdapt          bool
}

type EnvService struct {
	v *viper.Viper
}

// NewEnvService loads .env and .env.$APP_ENV from the working directory
// and exposes them together with AURA_* variables.
func NewEnvService() *EnvService {
	return NewEnvServiceFrom(".")
}

func NewEnvServiceFrom(dir string) *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil {
		log.Printf("Info: no .env file found (this is OK for CI/CD)")
	}

	envFile := filepath.Join(dir, fmt.Sprintf(".env.%s", appEnv))
	if err := godotenv.Overload(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load %s: %v", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix("AURA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	return &EnvService{v: v}
}

// ReadFile merges a yaml/json/toml config file; env still wins over it.
func (e *EnvService) ReadFile(path string) error {
	e.v.SetConfigFile(path)
	if err := e.v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Viper exposes the underlying instance for flag binding.
func (e *EnvService) Viper() *viper.Viper {
	return e.v
}

func (e *EnvService) Get(key string) string {
	return e.v.GetString(key)
}

func (e *EnvService) MustGet(key string) string {
	val := e.v.GetString(key)
	if val == "" {
		log.Fatalf("config %s is missing", key)
	}
	return val
}

func (e *EnvService) GetWithDefault(key string, defaultValue string) string {
	if val := e.v.GetString(key); val != "" {
		return val
	}
	return defaultValue
}

func (e *EnvService) GetBool(key string) bool {
	return e.v.GetBool(key)
}

func (e *EnvService) GetInt(key string) int {
	return e.v.GetInt(key)
}

func (e *EnvService) GetDuration(key string) time.Duration {
	return e.v.GetDuration(key)
}

func (e *EnvService) Settings() Settings {
	return Settings{
		APIURL:             e.v.GetString(KeyAPIURL),
		Headless:           e.v.GetBool(KeyHeadless),
		StorePath:          e.v.GetString(KeyStorePath),
		LogLevel:           e.v.GetString(KeyLogLevel),
		LogFile:            e.v.GetString(KeyLogFile),
		ListenAddr:         e.v.GetString(KeyListenAddr),
		RageClickThreshold: e.v.GetInt(KeyRageClickThreshold),
		RageClickWindow:    e.v.GetDuration(KeyRageClickWindow),
		PrefetchDelay:      e.v.GetDuration(KeyPrefetchDelay),
		PrefetchRate:       e.v.GetFloat64(KeyPrefetchRate),
		ViewportWidth:      e.v.GetInt(KeyViewportWidth),
		ViewportHeight:     e.v.GetInt(KeyViewportHeight),
		AutoAdapt:          e.v.GetBool(KeyAutoAdapt),
	}
}
