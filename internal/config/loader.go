package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validate = validator.New()

// New returns a viper instance with the paircorr defaults and environment
// binding (PAIRCORR_OUTPUT, PAIRCORR_CORRELATION_NBINS, ...). Command-line
// flags can be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PAIRCORR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults sets the values used when neither the file nor the
// environment gives one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("precision", 16)

	v.SetDefault("correlation.metric", "Euclidean")
	v.SetDefault("correlation.max_top", 10)
	v.SetDefault("correlation.estimator", "compensated")
	v.SetDefault("correlation.leaf_size", 4)
	v.SetDefault("correlation.split_method", "mean")

	for _, cat := range []string{"cat1", "cat2", "rand1", "rand2"} {
		v.SetDefault(cat+".comment", "#")
	}
}

// Load reads the YAML file at path into v and decodes the result. An empty
// path loads paircorr.yaml from the working directory if it exists.
func Load(v *viper.Viper, path string) (*RunConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("paircorr")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields Load cannot leave to the library.
func Validate(cfg *RunConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if !cfg.Cat1.Present() {
		return errors.New("cat1.file is required")
	}
	if cfg.Rand2.Present() && !cfg.Rand1.Present() {
		return errors.New("rand2 requires rand1")
	}
	return nil
}
