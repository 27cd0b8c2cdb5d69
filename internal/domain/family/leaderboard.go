package family

import (
	"context"
	"slices"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAMILY LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// Standing - позиция ребёнка в семейном рейтинге.
type Standing struct {
	Rank          int            `json:"rank"`
	ChildID       shared.ChildID `json:"childId"`
	DisplayName   string         `json:"displayName"`
	ChoreLevel    int            `json:"choreLevel"`
	ApprovedCount int            `json:"approvedCount"`
	LearningXP    int            `json:"learningXp"`
}

// Less - порядок рейтинга: уровень, затем число одобренных дел, затем XP.
// При равенстве выше стоит меньший id, чтобы порядок был стабильным.
func (s Standing) Less(other Standing) bool {
	if s.ChoreLevel != other.ChoreLevel {
		return s.ChoreLevel > other.ChoreLevel
	}
	if s.ApprovedCount != other.ApprovedCount {
		return s.ApprovedCount > other.ApprovedCount
	}
	if s.LearningXP != other.LearningXP {
		return s.LearningXP > other.LearningXP
	}
	return s.ChildID < other.ChildID
}

// Rank сортирует позиции и проставляет места с 1.
// Дети с одинаковыми показателями делят место.
func Rank(standings []Standing) []Standing {
	out := slices.Clone(standings)
	slices.SortFunc(out, func(a, b Standing) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})

	for i := range out {
		if i > 0 && sameScore(out[i], out[i-1]) {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

func sameScore(a, b Standing) bool {
	return a.ChoreLevel == b.ChoreLevel && a.ApprovedCount == b.ApprovedCount && a.LearningXP == b.LearningXP
}

// LeaderboardCache - кэш рейтинга семьи с ограниченным временем жизни.
type LeaderboardCache interface {
	// Get возвращает рейтинг; found=false при промахе.
	Get(ctx context.Context, family shared.FamilyID) ([]Standing, bool, error)

	// Set сохраняет рейтинг на ttl.
	Set(ctx context.Context, family shared.FamilyID, standings []Standing, ttl time.Duration) error

	// Invalidate удаляет рейтинг семьи.
	Invalidate(ctx context.Context, family shared.FamilyID) error
}
