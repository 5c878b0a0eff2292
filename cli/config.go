package cli

import (
	"github.com/spf13/viper"
)

// config holds the optional defaults an on-disk config file can override,
// loaded once at process start. Unset fields keep the flag defaults
// defined by each subcommand.
type config struct {
	CompressionLevel   int    `mapstructure:"compression_level"`
	Filter             string `mapstructure:"filter"`
	ConflictResolution string `mapstructure:"conflict_resolution"`
}

// loadConfig reads path (if non-empty) via viper, supporting YAML, TOML,
// and JSON by extension, matching viper's own format-sniffing. A missing
// or empty path is not an error: the CLI runs entirely off flags by
// default, and --config is an opt-in convenience for repeated invocations
// with the same non-default settings.
func loadConfig(path string) (*config, error) {
	if path == "" {
		return &config{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, ErrorConfigLoad.Error(err)
	}

	cfg := &config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, ErrorConfigLoad.Error(err)
	}

	return cfg, nil
}
