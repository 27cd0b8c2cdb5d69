package command

import (
	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ProgressSnapshot is the learning state returned by learning commands.
type ProgressSnapshot struct {
	XP            int
	Level         int
	Streak        int
	LongestStreak int
	GuardianLevel int
}

func snapshotOf(p *progression.LearningProgress) ProgressSnapshot {
	return ProgressSnapshot{
		XP:            p.XP,
		Level:         p.Level,
		Streak:        p.Streak,
		LongestStreak: p.LongestStreak,
		GuardianLevel: p.GuardianLevel,
	}
}

// xpEvents builds the events of one XP award: the completion itself, a streak
// change and a guardian escalation.
func xpEvents(
	eventType shared.EventType,
	fam shared.FamilyID,
	child shared.ChildID,
	sourceID string,
	update progression.XPUpdate,
	p *progression.LearningProgress,
) []shared.Event {
	events := []shared.Event{
		shared.NewXPAwardedEvent(eventType, fam, child, sourceID, update.AwardedXP, p.XP, p.Level, p.Streak),
	}
	if update.StreakChanged {
		events = append(events, shared.NewXPAwardedEvent(shared.EventStreakUpdated, fam, child, sourceID, 0, p.XP, p.Level, p.Streak))
	}
	if update.GuardianEscalated() {
		events = append(events, shared.NewGuardianLevelUpEvent(fam, child, update.OldGuardian, update.NewGuardian, p.LongestStreak))
	}
	return events
}
