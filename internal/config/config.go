package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Finder   FinderConfig   `yaml:"finder" mapstructure:"finder"`
	Eurostat EurostatConfig `yaml:"eurostat" mapstructure:"eurostat"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig selects the NUTS source file. When File is set it is used
// directly; otherwise the dataset is resolved (and fetched if missing) from
// Dir using the scale/year/EPSG parameters.
type DataConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	File   string `yaml:"file" mapstructure:"file"`
	Scale  int    `yaml:"scale" mapstructure:"scale"`
	Year   int    `yaml:"year" mapstructure:"year"`
	EPSG   int    `yaml:"epsg" mapstructure:"epsg"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FinderConfig configures region loading and querying.
type FinderConfig struct {
	MinLevel int     `yaml:"min_level" mapstructure:"min_level"`
	MaxLevel int     `yaml:"max_level" mapstructure:"max_level"`
	Buffer   float64 `yaml:"buffer" mapstructure:"buffer"`
	Strict   bool    `yaml:"strict" mapstructure:"strict"`
}

// EurostatConfig configures the GISCO distribution client.
type EurostatConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ServerConfig configures the lookup HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NUTSFIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", ".data")
	v.SetDefault("data.scale", 1)
	v.SetDefault("data.year", 2021)
	v.SetDefault("data.epsg", 4326)
	v.SetDefault("data.format", "geojson")
	v.SetDefault("finder.min_level", 0)
	v.SetDefault("finder.max_level", 3)
	v.SetDefault("finder.buffer", 0.0)
	v.SetDefault("eurostat.base_url", "https://gisco-services.ec.europa.eu/distribution/v2/nuts")
	v.SetDefault("eurostat.rate_limit", 2.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
