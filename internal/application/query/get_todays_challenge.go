package query

import (
	"context"

	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TODAY'S CHALLENGE QUERY
// Задание дня без правильного ответа. "Сегодня" - в часовом поясе семьи.
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeDTO - задание дня в том виде, в котором его видит ребёнок.
type ChallengeDTO struct {
	ChallengeID    string        `json:"challengeId"`
	Date           timeutil.Date `json:"date"`
	Prompt         string        `json:"prompt"`
	Options        []string      `json:"options"`
	RewardXP       int           `json:"rewardXp"`
	CompletedToday bool          `json:"completedToday"`
}

// GetTodaysChallengeHandler обрабатывает запрос.
type GetTodaysChallengeHandler struct {
	uow      family.UnitOfWorkFactory
	selector *challenge.Selector
	clock    timeutil.Clock
}

// NewGetTodaysChallengeHandler создаёт обработчик.
func NewGetTodaysChallengeHandler(uow family.UnitOfWorkFactory, selector *challenge.Selector, clock timeutil.Clock) *GetTodaysChallengeHandler {
	if selector == nil {
		selector = challenge.NewSelector(nil)
	}
	return &GetTodaysChallengeHandler{uow: uow, selector: selector, clock: clock}
}

// Handle выполняет запрос.
func (h *GetTodaysChallengeHandler) Handle(ctx context.Context, q ChildQuery) (*ChallengeDTO, error) {
	if err := q.Validate("GetTodaysChallenge"); err != nil {
		return nil, err
	}
	day := timeutil.Today(h.clock)
	tpl := h.selector.ForDay(q.ChildID, day)

	return read(ctx, h.uow, "get_todays_challenge", func(repos family.Repositories) (*ChallengeDTO, error) {
		if _, err := repos.Children().GetByID(ctx, q.ChildID); err != nil {
			return nil, err
		}

		completed := true
		if _, err := repos.Challenges().Get(ctx, q.ChildID, day); err != nil {
			if !shared.IsNotFound(err) {
				return nil, err
			}
			completed = false
		}

		return &ChallengeDTO{
			ChallengeID:    tpl.ID,
			Date:           day,
			Prompt:         tpl.Prompt,
			Options:        append([]string(nil), tpl.Options...),
			RewardXP:       tpl.RewardXP,
			CompletedToday: completed,
		}, nil
	})
}
