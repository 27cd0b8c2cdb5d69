package query

import (
	"context"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/learning"
	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING QUERIES
// Прогресс обучения, каталог модулей и вопросы модуля.
// ══════════════════════════════════════════════════════════════════════════════

// LearningProgressDTO - прогресс обучения ребёнка.
type LearningProgressDTO struct {
	ChildID                int64         `json:"childId"`
	XP                     int           `json:"xp"`
	Level                  int           `json:"level"`
	XPToNextLevel          int           `json:"xpToNextLevel"`
	Streak                 int           `json:"streak"`
	LongestStreak          int           `json:"longestStreak"`
	LastActiveDate         timeutil.Date `json:"lastActiveDate"`
	CompletedModules       []string      `json:"completedModules"`
	GuardianLevel          int           `json:"guardianLevel"`
	GraduatedAt            *time.Time    `json:"graduatedAt,omitempty"`
	GraduationBonusClaimed bool          `json:"graduationBonusClaimed"`
	ClaimedTiers           []int         `json:"claimedTiers"`
}

// GetLearningProgressHandler обрабатывает запрос.
type GetLearningProgressHandler struct {
	uow family.UnitOfWorkFactory
}

// NewGetLearningProgressHandler создаёт обработчик.
func NewGetLearningProgressHandler(uow family.UnitOfWorkFactory) *GetLearningProgressHandler {
	return &GetLearningProgressHandler{uow: uow}
}

// Handle выполняет запрос.
func (h *GetLearningProgressHandler) Handle(ctx context.Context, q ChildQuery) (*LearningProgressDTO, error) {
	if err := q.Validate("GetLearningProgress"); err != nil {
		return nil, err
	}
	return read(ctx, h.uow, "get_learning_progress", func(repos family.Repositories) (*LearningProgressDTO, error) {
		if _, err := repos.Children().GetByID(ctx, q.ChildID); err != nil {
			return nil, err
		}
		p, err := repos.Learning().Get(ctx, q.ChildID)
		if err != nil {
			return nil, err
		}
		claims, err := repos.GuardianClaims().ListByChild(ctx, q.ChildID)
		if err != nil {
			return nil, err
		}

		tiers := make([]int, 0, len(claims))
		for _, c := range claims {
			tiers = append(tiers, c.Tier)
		}
		modules := append([]string{}, p.CompletedModules...)

		return &LearningProgressDTO{
			ChildID:                q.ChildID.Int64(),
			XP:                     p.XP,
			Level:                  p.Level,
			XPToNextLevel:          progression.XPToNextLevel(p.XP),
			Streak:                 p.Streak,
			LongestStreak:          p.LongestStreak,
			LastActiveDate:         p.LastActiveDate,
			CompletedModules:       modules,
			GuardianLevel:          p.GuardianLevel,
			GraduatedAt:            p.GraduatedAt,
			GraduationBonusClaimed: p.GraduationBonusClaimed,
			ClaimedTiers:           tiers,
		}, nil
	})
}

// ModuleSummaryDTO - модуль в каталоге.
type ModuleSummaryDTO struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	RewardXP      int    `json:"rewardXp"`
	QuestionCount int    `json:"questionCount"`
}

// ListModules возвращает каталог в порядке прохождения.
func ListModules() []ModuleSummaryDTO {
	out := make([]ModuleSummaryDTO, 0, len(learning.Catalog))
	for _, m := range learning.Catalog {
		out = append(out, ModuleSummaryDTO{
			ID:            m.ID,
			Title:         m.Title,
			Summary:       m.Summary,
			RewardXP:      m.RewardXP,
			QuestionCount: len(m.Questions),
		})
	}
	return out
}

// ModuleQuizDTO - вопросы модуля с перемешанными вариантами.
type ModuleQuizDTO struct {
	ModuleID  string                  `json:"moduleId"`
	Title     string                  `json:"title"`
	RewardXP  int                     `json:"rewardXp"`
	Questions []learning.QuizQuestion `json:"questions"`
}

// GetModuleQuiz возвращает вопросы модуля или ErrModuleNotFound.
// Порядок вариантов одинаков при каждом вызове.
func GetModuleQuiz(moduleID string) (*ModuleQuizDTO, error) {
	m, err := learning.FindModule(moduleID)
	if err != nil {
		return nil, err
	}
	return &ModuleQuizDTO{
		ModuleID:  m.ID,
		Title:     m.Title,
		RewardXP:  m.RewardXP,
		Questions: m.Quiz(),
	}, nil
}
