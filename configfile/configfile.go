// Package configfile loads engine configuration from YAML files and
// MAXITAXI_-prefixed environment variables for the CLI and example tools.
// Library embedders that already hold a [maxitaxi.Config] do not need it.
package configfile

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	maxitaxi "github.com/JakubNatonek/MaxiTaxi-sub000"
)

// Load describes the load operation and its observable behavior.
//
// Load reads maxitaxi.yaml from the given paths (the working directory when
// none are given), applies MAXITAXI_ environment overrides, and returns a
// validated engine configuration seeded from [maxitaxi.DefaultConfig].
// Load may return an error when the file is unreadable, a duration fails to
// parse, or the resulting configuration fails validation.
func Load(paths ...string) (maxitaxi.Config, error) {
	v := viper.New()
	v.SetConfigName("maxitaxi")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("MAXITAXI")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return maxitaxi.Config{}, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg := maxitaxi.DefaultConfig()
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return maxitaxi.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return maxitaxi.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := maxitaxi.DefaultConfig()

	v.SetDefault("http.timeout", def.HTTP.Timeout.String())

	v.SetDefault("clock.checkinterval", def.Clock.CheckInterval.String())
	v.SetDefault("clock.activitydebounce", def.Clock.ActivityDebounce.String())
	v.SetDefault("clock.refreshwindow", def.Clock.RefreshWindow.String())
	v.SetDefault("clock.refreshendpoint", def.Clock.RefreshEndpoint)

	v.SetDefault("dispatcher.exemptendpoints", def.Dispatcher.ExemptEndpoints)

	v.SetDefault("storage.redisprefix", def.Storage.RedisPrefix)

	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
}
