package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "DASHBOARD"

type Settings struct {
	Server     ServerSettings     `mapstructure:"server"`
	ActiveData ActiveDataSettings `mapstructure:"activedata"`
	Cache      CacheSettings      `mapstructure:"cache"`
	Dashboards DashboardSettings  `mapstructure:"dashboards"`
}

type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type ActiveDataSettings struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheSettings struct {
	TTL           time.Duration `mapstructure:"ttl"`
	DBPath        string        `mapstructure:"db_path"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

type DashboardSettings struct {
	// Path of the dashboards ini file, empty for the built-in dashboards.
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("activedata.url", "http://activedata.allizom.org/query")
	v.SetDefault("activedata.timeout", 2*time.Minute)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.db_path", "")
	v.SetDefault("cache.purge_interval", 10*time.Minute)
	v.SetDefault("dashboards.path", "")
}

// LoadSettings reads the YAML file at path, when given, on top of the defaults. Every key
// can be overridden from the environment, e.g. DASHBOARD_CACHE_TTL=30m.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	if s.ActiveData.URL == "" {
		return errors.New("activedata.url must be set")
	}
	if s.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", s.Cache.TTL)
	}
	return nil
}
