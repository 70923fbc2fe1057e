// Package config handles application configuration loading from YAML and environment variables.
package config

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "tutorapp/internal/utils"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at a config file
const ConfigFileEnv = "TUTOR_CONFIG_FILE"

// Supported oracle providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Language model configuration
	Oracle OracleConfig `json:"oracle" yaml:"oracle"`

	// Practice defaults
	Tutor TutorConfig `json:"tutor" yaml:"tutor"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port          string   `json:"port" yaml:"port"`
	SessionSecret string   `json:"session_secret" yaml:"session_secret"`
	Debug         bool     `json:"debug" yaml:"debug"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins"`
}

// OracleConfig selects and tunes the generative text model
type OracleConfig struct {
	Provider string `json:"provider" yaml:"provider"` // "gemini" or "openai"
	// BaseURL overrides the provider endpoint. Any OpenAI-compatible server works with the openai provider.
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	Model       string  `json:"model" yaml:"model"`
	APIKey      string  `json:"-" yaml:"api_key"` // Operator key used to seed new sessions
	Temperature float32 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// TutorConfig holds practice defaults for new sessions
type TutorConfig struct {
	DefaultLanguage    string        `json:"default_language" yaml:"default_language"`
	DefaultDifficulty  string        `json:"default_difficulty" yaml:"default_difficulty"`
	Gamification       bool          `json:"gamification" yaml:"gamification"`
	SessionIdleTimeout time.Duration `json:"session_idle_timeout" yaml:"session_idle_timeout"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Empty disables OTLP log export
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "tutor-server" or "tutor-cli"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
	UseAutoSDK     bool              `json:"use_auto_sdk" yaml:"use_auto_sdk"`   // Hand spans to an eBPF auto-instrumentation agent
}

// Default returns the built-in configuration used when no config file exists
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			SessionSecret: "change-me-in-production",
			LogLevel:      "info",
			CORSOrigins:   []string{"http://localhost:3000"},
		},
		Oracle: OracleConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-2.0-flash",
			Temperature: 0.7,
			MaxTokens:   512,
		},
		Tutor: TutorConfig{
			DefaultLanguage:    "German",
			DefaultDifficulty:  "Beginner",
			Gamification:       true,
			SessionIdleTimeout: DefaultSessionIdleTimeout,
		},
		OpenTelemetry: OpenTelemetryConfig{
			Protocol:      "grpc",
			Insecure:      true,
			ServiceName:   "tutor-server",
			EnableLogging: true,
			SamplingRate:  1.0,
		},
	}
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects configurations the tutor cannot run with
func (c *Config) Validate() error {
	switch strings.ToLower(c.Oracle.Provider) {
	case ProviderOpenAI, ProviderGemini:
	default:
		return contextutils.WrapErrorf(contextutils.ErrOracleConfigInvalid, "unsupported oracle provider %q", c.Oracle.Provider)
	}
	if strings.TrimSpace(c.Oracle.Model) == "" {
		return contextutils.WrapErrorf(contextutils.ErrOracleConfigInvalid, "oracle model is required")
	}
	if c.Oracle.MaxTokens < 0 || c.Oracle.MaxTokens > math.MaxInt32 {
		return contextutils.WrapErrorf(contextutils.ErrOracleConfigInvalid,
			"oracle max_tokens %d must be between 0 and %d", c.Oracle.MaxTokens, math.MaxInt32)
	}
	if !contextutils.IsSupportedLanguage(c.Tutor.DefaultLanguage) {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "invalid default language %q", c.Tutor.DefaultLanguage)
	}
	if !contextutils.IsSupportedDifficulty(c.Tutor.DefaultDifficulty) {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "invalid default difficulty %q", c.Tutor.DefaultDifficulty)
	}
	if c.Tutor.SessionIdleTimeout < 0 {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed,
			"session idle timeout %s must not be negative", c.Tutor.SessionIdleTimeout)
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnv(c)
}

// overrideStructFromEnv recursively overrides struct fields with environment variables
func overrideStructFromEnv(v interface{}) {
	overrideStructFromEnvWithPrefix(v, "")
}

var durationType = reflect.TypeOf(time.Duration(0))

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// SERVER_PORT, ORACLE_API_KEY, TUTOR_SESSION_IDLE_TIMEOUT, ...
		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		// Durations accept "30m" style values as well as nanoseconds
		if field.Type() == durationType {
			if envVal := os.Getenv(envKey); envVal != "" {
				if d, err := time.ParseDuration(envVal); err == nil {
					field.SetInt(int64(d))
				} else if n, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(n)
				}
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				if field.Type().Elem().Kind() == reflect.String {
					slice := strings.Split(envVal, ",")
					for i := range slice {
						slice[i] = strings.TrimSpace(slice[i])
					}
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				fieldPrefix := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
				if prefix != "" {
					fieldPrefix = prefix + "_" + fieldPrefix
				}
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), fieldPrefix)
			}
		}
	}
}

// loadConfigWithOverrides loads the file named by TUTOR_CONFIG_FILE, or config.yaml.
// A missing config.yaml yields the built-in defaults; a missing explicit file is an error.
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	config, err := loadConfigFromFile("config.yaml")
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// loadConfigFromFile loads configuration from a specific file on top of the defaults
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}
