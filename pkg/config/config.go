package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	LogFormat     string              `mapstructure:"log_format"`
	Session       SessionConfig       `mapstructure:"session"`
	Vendors       VendorsConfig       `mapstructure:"vendors"`
	Transports    TransportsConfig    `mapstructure:"transports"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
	Runner        RunnerConfig        `mapstructure:"runner"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	Capture VendorConfig `mapstructure:"capture"`
	Speech  VendorConfig `mapstructure:"speech"`
	Backend VendorConfig `mapstructure:"backend"`
}

type TransportsConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// SessionConfig holds per-run choices. Voice is resolved once at startup.
type SessionConfig struct {
	Voice        string  `mapstructure:"voice"`
	Greeting     bool    `mapstructure:"greeting"`
	GreetingRate float64 `mapstructure:"greeting_rate"`
	AnswerRate   float64 `mapstructure:"answer_rate"`
}

// AudioConfig selects the local devices feeding capture and playing speech.
type AudioConfig struct {
	Device          string `mapstructure:"device"`
	SampleRate      int    `mapstructure:"sample_rate"`
	FramesPerBuffer int    `mapstructure:"frames_per_buffer"`
}

type ObservabilityConfig struct {
	TimelineDir   string `mapstructure:"timeline_dir"`
	RetentionDays int    `mapstructure:"retention_days"`
	LogEvents     bool   `mapstructure:"log_events"`
	// EventsFile appends every event of every session as JSON lines.
	EventsFile  string  `mapstructure:"events_file"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	EventBuffer int     `mapstructure:"event_buffer"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

type RunnerConfig struct {
	DrainTimeoutMS int `mapstructure:"drain_timeout_ms"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("session.voice", "")
	v.SetDefault("session.greeting", true)
	v.SetDefault("session.greeting_rate", 1.0)
	v.SetDefault("session.answer_rate", 1.1)
	v.SetDefault("vendors.capture.provider", "mock")
	v.SetDefault("vendors.speech.provider", "mock")
	v.SetDefault("vendors.backend.provider", "http")
	v.SetDefault("transports.provider", "console")
	v.SetDefault("audio.device", "none")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.frames_per_buffer", 512)
	v.SetDefault("observability.timeline_dir", "")
	v.SetDefault("observability.retention_days", 0)
	v.SetDefault("observability.log_events", false)
	v.SetDefault("observability.events_file", "")
	v.SetDefault("observability.sample_rate", 1.0)
	v.SetDefault("observability.event_buffer", 256)
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("runner.drain_timeout_ms", 5000)
}

// LoadConfig reads path, applies defaults, expands ${VAR} references and
// validates the result.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is given.
func Default() (Config, error) {
	v := viper.New()
	setDefaults(v)
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	expandEnvStrings(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Transports.Provider) == "" {
		return fmt.Errorf("transports.provider is required")
	}
	if strings.TrimSpace(c.Vendors.Capture.Provider) == "" {
		return fmt.Errorf("vendors.capture.provider is required")
	}
	if strings.TrimSpace(c.Vendors.Speech.Provider) == "" {
		return fmt.Errorf("vendors.speech.provider is required")
	}
	if strings.TrimSpace(c.Vendors.Backend.Provider) == "" {
		return fmt.Errorf("vendors.backend.provider is required")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	switch strings.ToLower(c.Audio.Device) {
	case "none", "portaudio":
	default:
		return fmt.Errorf("audio.device must be none or portaudio, got %q", c.Audio.Device)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be within [0,1]")
	}
	if c.Session.GreetingRate <= 0 || c.Session.AnswerRate <= 0 {
		return fmt.Errorf("session rates must be positive")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.Capture.Settings = expandSettings(cfg.Vendors.Capture.Settings)
	cfg.Vendors.Speech.Settings = expandSettings(cfg.Vendors.Speech.Settings)
	cfg.Vendors.Backend.Settings = expandSettings(cfg.Vendors.Backend.Settings)
	cfg.Transports.Settings = expandSettings(cfg.Transports.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

// expandValue walks typed fields; settings maps are handled by expandSettings.
func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	}
}
