package progression

import (
	"context"
	"slices"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNING PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// LearningProgress - прогресс ребёнка в обучающем треке.
type LearningProgress struct {
	ChildID shared.ChildID

	XP            int
	Level         int
	Streak        int
	LongestStreak int

	// LastActiveDate - последний календарный день с активностью.
	LastActiveDate timeutil.Date

	// CompletedModules - отсортированный набор ID пройденных модулей.
	CompletedModules []string

	GuardianLevel int

	// GraduatedAt - момент первого повышения уровня Guardian.
	GraduatedAt *time.Time

	// GraduationBonusClaimed - бонус выпускника уже получен хотя бы за один уровень.
	GraduationBonusClaimed bool

	UpdatedAt time.Time
}

// NewLearningProgress создаёт пустой прогресс.
func NewLearningProgress(child shared.ChildID) *LearningProgress {
	return &LearningProgress{
		ChildID:       child,
		Level:         1,
		GuardianLevel: MinGuardianLevel,
	}
}

// XPUpdate - результат начисления XP.
type XPUpdate struct {
	AwardedXP     int
	OldLevel      int
	NewLevel      int
	OldGuardian   int
	NewGuardian   int
	Streak        int
	StreakChanged bool
}

// LeveledUp возвращает true, если уровень обучения вырос.
func (u XPUpdate) LeveledUp() bool { return u.NewLevel > u.OldLevel }

// GuardianEscalated возвращает true, если уровень Guardian вырос.
func (u XPUpdate) GuardianEscalated() bool { return u.NewGuardian > u.OldGuardian }

// AwardXP начисляет XP и отмечает активность за день.
func (p *LearningProgress) AwardXP(xp int, day timeutil.Date, at time.Time) XPUpdate {
	if xp < 0 {
		xp = 0
	}
	update := XPUpdate{
		AwardedXP:   xp,
		OldLevel:    p.Level,
		OldGuardian: p.GuardianLevel,
	}

	p.XP += xp
	if level := LearningLevel(p.XP); level > p.Level {
		p.Level = level
	}

	streak, changed := Streak{
		Current:    p.Streak,
		Longest:    p.LongestStreak,
		LastActive: p.LastActiveDate,
	}.Record(day)
	p.Streak = streak.Current
	p.LongestStreak = streak.Longest
	p.LastActiveDate = streak.LastActive

	if guardian := GuardianLevel(p.LongestStreak); guardian > p.GuardianLevel {
		p.GuardianLevel = guardian
		if p.GraduatedAt == nil {
			graduated := at
			p.GraduatedAt = &graduated
		}
	}

	p.UpdatedAt = at
	update.NewLevel = p.Level
	update.NewGuardian = p.GuardianLevel
	update.Streak = p.Streak
	update.StreakChanged = changed
	return update
}

// HasCompleted проверяет, пройден ли модуль.
func (p *LearningProgress) HasCompleted(moduleID string) bool {
	_, found := slices.BinarySearch(p.CompletedModules, moduleID)
	return found
}

// MarkModuleCompleted добавляет модуль в набор. Возвращает false, если он уже там.
func (p *LearningProgress) MarkModuleCompleted(moduleID string) bool {
	i, found := slices.BinarySearch(p.CompletedModules, moduleID)
	if found {
		return false
	}
	p.CompletedModules = slices.Insert(p.CompletedModules, i, moduleID)
	return true
}

// MarkGraduationBonusClaimed отмечает получение бонуса выпускника.
func (p *LearningProgress) MarkGraduationBonusClaimed(at time.Time) {
	p.GraduationBonusClaimed = true
	p.UpdatedAt = at
}

// Clone возвращает независимую копию.
func (p *LearningProgress) Clone() *LearningProgress {
	c := *p
	c.CompletedModules = slices.Clone(p.CompletedModules)
	if p.GraduatedAt != nil {
		at := *p.GraduatedAt
		c.GraduatedAt = &at
	}
	return &c
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository хранит LearningProgress.
type Repository interface {
	// Get возвращает прогресс; для ребёнка без записи - NewLearningProgress.
	Get(ctx context.Context, child shared.ChildID) (*LearningProgress, error)

	// GetForUpdate то же, но блокирует строку до конца транзакции.
	GetForUpdate(ctx context.Context, child shared.ChildID) (*LearningProgress, error)

	// Save создаёт или обновляет запись.
	Save(ctx context.Context, p *LearningProgress) error
}
