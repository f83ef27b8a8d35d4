package config

import (
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/stvsmth/sieve/internal"
)

type Config struct {
	Scanner struct {
		Include string `mapstructure:"include"`
	} `mapstructure:"scanner"`
	Performance struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"performance"`
	Rewriter struct {
		CompressionLevel int `mapstructure:"compression_level"`
	} `mapstructure:"rewriter"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Output string `mapstructure:"output"`
		Dir    string `mapstructure:"dir"`
	} `mapstructure:"logging"`
	Report struct {
		Locale string `mapstructure:"locale"`
	} `mapstructure:"report"`
	Progress struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"progress"`
}

// New returns a viper instance with the search paths, env binding and
// defaults set. An empty path searches the usual locations for sieve.yaml.
func New(path string) *viper.Viper {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sieve")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sieve")
		v.AddConfigPath("/etc/sieve")
	}

	v.SetEnvPrefix("SIEVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("scanner.include", internal.DefaultInclude)
	v.SetDefault("performance.workers", runtime.NumCPU())
	v.SetDefault("rewriter.compression_level", -1)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "file")
	v.SetDefault("logging.dir", ".")
	v.SetDefault("report.locale", internal.DefaultLocale)
	v.SetDefault("progress.enabled", true)

	return v
}

// Decode reads v's config file, if any, and unmarshals the merged result.
// A missing config file is not an error unless one was named explicitly.
func Decode(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}
