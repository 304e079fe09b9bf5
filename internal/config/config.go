package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	DataDir            string `json:"data_dir"`
	LogLevel           string `json:"log_level"`
	RetentionDays      int    `json:"retention_days"`
	AutoplayIntervalMS int    `json:"autoplay_interval_ms"`
	FadeDurationMS     int    `json:"fade_duration_ms"`
	CleanupIntervalMS  int    `json:"cleanup_interval_ms"`
	IntakeCapacity     int    `json:"intake_capacity"`
	Events             struct {
		AllowedTypes  []string            `json:"allowed_types"`
		AllowedTopics []string            `json:"allowed_topics"`
		IgnoredTypes  []string            `json:"ignored_types"`
		Filters       map[string][]string `json:"filters"`
	} `json:"events"`
	Geo struct {
		TablePath       string  `json:"table_path"`
		DefaultLocation string  `json:"default_location"`
		DefaultLat      float64 `json:"default_lat"`
		DefaultLng      float64 `json:"default_lng"`
	} `json:"geo"`
	Feed struct {
		URL           string `json:"url"`
		Subscribe     string `json:"subscribe"`
		RedisAddr     string `json:"redis_addr"`
		RedisPassword string `json:"redis_password"`
		RedisDB       int    `json:"redis_db"`
		RedisChannel  string `json:"redis_channel"`
	} `json:"feed"`
	HTTP struct {
		Addr           string `json:"addr"`
		MaxSubscribers int    `json:"max_subscribers"`
	} `json:"http"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
	Alerts struct {
		Targets []string `json:"targets"`
	} `json:"alerts"`
}

func defaults() *Config {
	cfg := &Config{
		DataDir:            filepath.Join(os.Getenv("HOME"), ".eventscope"),
		LogLevel:           "info",
		RetentionDays:      8,
		AutoplayIntervalMS: 1000,
		FadeDurationMS:     5000,
		CleanupIntervalMS:  60000,
		IntakeCapacity:     256,
	}
	cfg.Events.AllowedTypes = []string{}
	cfg.Events.AllowedTopics = []string{}
	cfg.Events.IgnoredTypes = []string{}
	cfg.Events.Filters = map[string][]string{}
	cfg.Geo.DefaultLocation = "Virginia, USA"
	cfg.Geo.DefaultLat = 37.926868
	cfg.Geo.DefaultLng = -78.024902
	cfg.Feed.RedisChannel = "events"
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.MaxSubscribers = 64
	cfg.Alerts.Targets = []string{"log:error"}
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if feedURL := os.Getenv("EVENTSCOPE_FEED_URL"); feedURL != "" {
		cfg.Feed.URL = feedURL
	}
	if redisAddr := os.Getenv("EVENTSCOPE_REDIS_ADDR"); redisAddr != "" {
		cfg.Feed.RedisAddr = redisAddr
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

// Retention is the event retention window.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c *Config) AutoplayInterval() time.Duration {
	return time.Duration(c.AutoplayIntervalMS) * time.Millisecond
}

func (c *Config) FadeDuration() time.Duration {
	return time.Duration(c.FadeDurationMS) * time.Millisecond
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMS) * time.Millisecond
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	return writeJSON(path, cfg)
}

func writeDefaults(path string, cfg *Config) error {
	if err := writeJSON(path, cfg); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg into its generic JSON object form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns every config value keyed by dotted path. Secrets are
// masked when mask is true.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue reads one dotted key from the config file at path. The file is
// created with defaults if missing.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	v, ok := Flatten(raw)[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue writes one dotted key to the config file at path. The value is
// parsed as JSON when possible so numbers, booleans and lists keep their
// type; otherwise it is stored as a string.
func SetValue(path, key, value string) error {
	raw, err := readRaw(path)
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}

	flat := Flatten(raw)
	flat[key] = parsed
	return writeJSON(path, Unflatten(flat))
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return m, nil
}
