package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "chore-hub", cfg.App.Name)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "Europe/Berlin", cfg.App.Location.String())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, int64(500), cfg.Rewards.GuardianTier2Sats)
	assert.Equal(t, int64(2100), cfg.Rewards.GuardianTier3Sats)
	assert.Equal(t, 30*time.Second, cfg.Rewards.LeaderboardTTL)
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.RetryMilestonesSpec)
	assert.NotNil(t, cfg.Features)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HTTP_PARENT_API_KEYS", "a,b")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("REWARDS_GUARDIAN_TIER3_SATS", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"a", "b"}, cfg.HTTP.ParentAPIKeys)
	assert.Equal(t, "UTC", cfg.App.Location.String())
	assert.Equal(t, int64(3000), cfg.Rewards.GuardianTier3Sats)
}

func TestValidate_ProductionRequiresBackends(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "WALLET_BASE_URL")
	assert.Contains(t, err.Error(), "HTTP_PARENT_API_KEYS")
}

func TestValidate_BadValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "0")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("FEATURE_REWARDS_GUARDIAN", "false")
	t.Setenv("FEATURE_LEARNING_CHALLENGE", "0")

	ff := LoadFeatureFlags()
	assert.False(t, ff.IsEnabled(FeatureGuardianBonus, "fam"))
	assert.False(t, ff.IsEnabled(FeatureDailyChallenge, ""))
	assert.True(t, ff.IsEnabled(FeatureLearningModules, "fam"))
	assert.False(t, ff.IsEnabled("unknown", "fam"))

	ff.SetFamilyOverride("fam", FeatureGuardianBonus, true)
	assert.True(t, ff.IsEnabled(FeatureGuardianBonus, "fam"))
	assert.False(t, ff.IsEnabled(FeatureGuardianBonus, "other"))
	ff.ClearFamilyOverrides("fam")
	assert.False(t, ff.IsEnabled(FeatureGuardianBonus, "fam"))

	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureLevelBonus, 101), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.EnableFeature("nope"), ErrFeatureNotFound)
}

func TestFeatureFlags_RolloutIsStablePerFamily(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeaturePriceQuotes, 50))

	first := ff.IsEnabled(FeaturePriceQuotes, "fam-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeaturePriceQuotes, "fam-42"))
	}

	var nilFlags *FeatureFlags
	assert.True(t, nilFlags.IsEnabled(FeatureLevelBonus, "fam"))
}
