package bonus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

func active(interval int, sats shared.Sats) Settings {
	return Settings{FamilyID: "fam", BonusSats: sats, MilestoneInterval: interval, IsActive: true}
}

func TestCrossedMilestones(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		from, to int
		want     []int
	}{
		{"crosses five", active(5, 210), 4, 5, []int{5}},
		{"no crossing", active(5, 210), 5, 6, nil},
		{"jump over two", active(2, 100), 1, 6, []int{2, 4, 6}},
		{"interval one", active(1, 50), 0, 2, []int{1, 2}},
		{"capped at ten", active(5, 210), 9, 12, []int{10}},
		{"inactive", Settings{FamilyID: "fam", BonusSats: 210, MilestoneInterval: 5}, 4, 5, nil},
		{"zero sats", active(5, 0), 4, 5, nil},
		{"no change", active(5, 210), 5, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CrossedMilestones(tt.settings, tt.from, tt.to))
		})
	}
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, active(5, 210).Validate())
	assert.True(t, shared.IsValidation(active(0, 210).Validate()))
	assert.True(t, shared.IsValidation(active(5, -1).Validate()))
	assert.True(t, shared.IsValidation(Settings{MilestoneInterval: 5}.Validate()))
}

func TestDefaultSettings_Inactive(t *testing.T) {
	s := DefaultSettings("fam")
	assert.False(t, s.IsActive)
	assert.NoError(t, s.Validate())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "milestone:7:5", Payout{ChildID: 7, Level: 5}.IdempotencyKey())
	assert.Equal(t, "guardian:7:2", GuardianClaim{ChildID: 7, Tier: 2}.IdempotencyKey())
	assert.Equal(t, "task:abc", TaskKey("abc"))
	assert.True(t, ValidGuardianTier(3))
	assert.False(t, ValidGuardianTier(1))
	assert.False(t, ValidGuardianTier(4))
}
