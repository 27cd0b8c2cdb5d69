package progression

import "github.com/sats-family/chore-hub/pkg/timeutil"

// ══════════════════════════════════════════════════════════════════════════════
// STREAK & GUARDIAN
// ══════════════════════════════════════════════════════════════════════════════

const (
	// GuardianTier2Streak - самая длинная серия, открывающая Guardian 2.
	GuardianTier2Streak = 10
	// GuardianTier3Streak - самая длинная серия, открывающая Guardian 3.
	GuardianTier3Streak = 30

	// MinGuardianLevel - уровень по умолчанию.
	MinGuardianLevel = 1
	// MaxGuardianLevel - высший уровень.
	MaxGuardianLevel = 3
)

// Streak - серия дней подряд с квалифицирующей активностью.
type Streak struct {
	Current    int
	Longest    int
	LastActive timeutil.Date
}

// Record отмечает активность за день и возвращает новую серию.
// Тот же день - без изменений; следующий день - продолжение; пропуск - сброс на 1.
// День раньше последнего активного (часы ушли назад) ничего не меняет.
func (s Streak) Record(day timeutil.Date) (Streak, bool) {
	if !s.LastActive.IsZero() {
		gap := day.DaysSince(s.LastActive)
		switch {
		case gap <= 0:
			return s, false
		case gap == 1:
			s.Current++
		default:
			s.Current = 1
		}
	} else {
		s.Current = 1
	}
	s.LastActive = day
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s, true
}

// GuardianLevel выводится из самой длинной серии, поэтому никогда не падает.
func GuardianLevel(longestStreak int) int {
	switch {
	case longestStreak >= GuardianTier3Streak:
		return 3
	case longestStreak >= GuardianTier2Streak:
		return 2
	default:
		return MinGuardianLevel
	}
}
