package main

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spec-kit/daily-status/internal/config"
)

// Flag keys shared by cobra and viper. Environment variables use the
// DAILYCTL_ prefix with dashes turned into underscores.
const (
	keyConfig      = "config"
	keyAPI         = "api"
	keyTimezone    = "timezone"
	keyCacheDriver = "cache-driver"
	keyCachePath   = "cache-path"
	keyTokenPath   = "token-path"
	keyLogLevel    = "log-level"
	keyLogFile     = "log-file"
)

// settings is the resolved configuration of one invocation.
type settings struct {
	base      *config.Config
	dashboard config.DashboardConfig
	logger    config.LoggerConfig
}

func bindPersistentFlags(cmd *cobra.Command, v *viper.Viper, base *config.Config) {
	flags := cmd.PersistentFlags()
	flags.String(keyConfig, "", "optional config file (yaml, toml or json)")
	flags.String(keyAPI, base.Dashboard.APIBaseURL, "daily status API base URL")
	flags.String(keyTimezone, base.Dashboard.Timezone, "timezone for calendar dates")
	flags.String(keyCacheDriver, base.Dashboard.CacheDriver, "recovery cache backend: sqlite or redis")
	flags.String(keyCachePath, base.Dashboard.CachePath, "sqlite recovery cache file")
	flags.String(keyTokenPath, base.Dashboard.TokenPath, "file holding the session token")
	flags.String(keyLogLevel, "warn", "log level")
	flags.String(keyLogFile, filepath.Join(filepath.Dir(base.Dashboard.CachePath), "dailyctl.log"), "log file")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("DAILYCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// resolve layers flags, DAILYCTL_* env and the optional config file over the
// service-wide environment configuration.
func resolve(v *viper.Viper, base *config.Config) (*settings, error) {
	if file := v.GetString(keyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	dashboard := base.Dashboard
	dashboard.APIBaseURL = strings.TrimRight(v.GetString(keyAPI), "/")
	dashboard.Timezone = v.GetString(keyTimezone)
	dashboard.CacheDriver = strings.ToLower(v.GetString(keyCacheDriver))
	dashboard.CachePath = v.GetString(keyCachePath)
	dashboard.TokenPath = v.GetString(keyTokenPath)

	logger := base.Logger
	logger.Level = v.GetString(keyLogLevel)
	logger.Encoding = "console"
	logger.File = v.GetString(keyLogFile)

	switch dashboard.CacheDriver {
	case "sqlite", "redis":
	default:
		return nil, errors.New("cache-driver must be sqlite or redis")
	}
	return &settings{base: base, dashboard: dashboard, logger: logger}, nil
}
