package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with per-family gradual rollout.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// familyOverrides pins a feature on or off for one family.
	familyOverrides map[string]map[string]bool
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// RolloutPercent (0-100). Families are bucketed by a hash of their ID.
	RolloutPercent int
}

// Predefined feature flag names.
const (
	FeatureLearningModules  = "learning.modules"   // module catalog, quizzes, completion
	FeatureDailyChallenge   = "learning.challenge" // today's challenge and completion
	FeatureGuardianBonus    = "rewards.guardian"   // guardian tier claims
	FeatureLevelBonus       = "rewards.level"      // chore level-up milestones
	FeatureLeaderboardCache = "leaderboard.cache"  // serve standings from redis
	FeaturePriceQuotes      = "earnings.quotes"    // attach fiat quotes to payouts
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:        make(map[string]*Feature),
		familyOverrides: make(map[string]map[string]bool),
	}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	defaults := []Feature{
		{Name: FeatureLearningModules, Description: "Learning modules and quizzes", Enabled: true, RolloutPercent: 100},
		{Name: FeatureDailyChallenge, Description: "Daily bitcoin challenge", Enabled: true, RolloutPercent: 100},
		{Name: FeatureGuardianBonus, Description: "Guardian tier bonus claims", Enabled: true, RolloutPercent: 100},
		{Name: FeatureLevelBonus, Description: "Chore level-up bonuses", Enabled: true, RolloutPercent: 100},
		{Name: FeatureLeaderboardCache, Description: "Cache family leaderboards", Enabled: true, RolloutPercent: 100},
		{Name: FeaturePriceQuotes, Description: "Fiat quotes on payouts", Enabled: true, RolloutPercent: 100},
	}
	for i := range defaults {
		f := defaults[i]
		ff.features[f.Name] = &f
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_REWARDS_GUARDIAN=false
// Example: FEATURE_LEARNING_CHALLENGE=50 (50% of families)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "rewards.guardian" -> "FEATURE_REWARDS_GUARDIAN"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether a feature is on for a family. An empty familyID
// asks about the global switch only.
func (ff *FeatureFlags) IsEnabled(featureName, familyID string) bool {
	if ff == nil {
		return true
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if familyID != "" {
		if overrides, ok := ff.familyOverrides[familyID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}
	if feature.RolloutPercent < 100 && familyID != "" {
		return inRollout(familyID, featureName, feature.RolloutPercent)
	}
	return feature.RolloutPercent > 0
}

// inRollout keeps a family in the same bucket across restarts.
func inRollout(familyID, featureName string, percent int) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(featureName))
	_, _ = h.Write([]byte(familyID))
	return int(h.Sum32()%100) < percent
}

// SetFamilyOverride pins a feature for one family.
func (ff *FeatureFlags) SetFamilyOverride(familyID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.familyOverrides[familyID]; !ok {
		ff.familyOverrides[familyID] = make(map[string]bool)
	}
	ff.familyOverrides[familyID][featureName] = enabled
}

// ClearFamilyOverrides removes all overrides for a family.
func (ff *FeatureFlags) ClearFamilyOverrides(familyID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.familyOverrides, familyID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}
	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
