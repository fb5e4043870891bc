package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/daily-status/internal/config"
	"github.com/spec-kit/daily-status/internal/feed"
)

func testBase() *config.Config {
	return &config.Config{
		Dashboard: config.DashboardConfig{
			APIBaseURL:  "http://localhost:8080",
			Timezone:    "UTC",
			CacheDriver: "sqlite",
			CachePath:   "/var/lib/dailyctl/cache.db",
			TokenPath:   "/var/lib/dailyctl/token",
		},
	}
}

func TestResolveLayersFlagsAndEnv(t *testing.T) {
	t.Setenv("DAILYCTL_TIMEZONE", "Europe/Berlin")
	base := testBase()
	cmd := &cobra.Command{Use: "dailyctl"}
	v := viper.New()
	bindPersistentFlags(cmd, v, base)
	require.NoError(t, cmd.PersistentFlags().Set(keyAPI, "https://status.corp.io/"))

	s, err := resolve(v, base)
	require.NoError(t, err)
	assert.Equal(t, "https://status.corp.io", s.dashboard.APIBaseURL)
	assert.Equal(t, "Europe/Berlin", s.dashboard.Timezone)
	assert.Equal(t, "sqlite", s.dashboard.CacheDriver)
	assert.Equal(t, "/var/lib/dailyctl/dailyctl.log", s.logger.File)
	assert.Equal(t, "console", s.logger.Encoding)
	assert.Equal(t, "http://localhost:8080", base.Dashboard.APIBaseURL)
}

func TestResolveRejectsUnknownCacheDriver(t *testing.T) {
	base := testBase()
	cmd := &cobra.Command{Use: "dailyctl"}
	v := viper.New()
	bindPersistentFlags(cmd, v, base)
	require.NoError(t, cmd.PersistentFlags().Set(keyCacheDriver, "memcached"))

	_, err := resolve(v, base)
	assert.Error(t, err)
}

func TestViewFlagsSelection(t *testing.T) {
	t.Run("explicit range", func(t *testing.T) {
		f := viewFlags{from: "2026-03-01", to: "2026-03-07", tab: "blocked", team: "team-1"}
		sel, err := f.selection(time.UTC)
		require.NoError(t, err)
		assert.Equal(t, feed.TabBlocked, sel.Tab)
		assert.Equal(t, "team-1", sel.TeamID)
		assert.Equal(t, "2026-03-01..2026-03-07", sel.Range.String())
	})
	t.Run("half range", func(t *testing.T) {
		f := viewFlags{from: "2026-03-01"}
		_, err := f.selection(time.UTC)
		assert.Error(t, err)
	})
	t.Run("default days", func(t *testing.T) {
		f := viewFlags{days: 7, tab: "nonsense"}
		sel, err := f.selection(time.UTC)
		require.NoError(t, err)
		assert.Equal(t, feed.TabAll, sel.Tab)
		assert.Equal(t, 6*24*time.Hour, sel.Range.End.Sub(sel.Range.Start))
	})
}
