package challenge

import (
	"context"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// Selector выбирает задание дня из пула.
type Selector struct {
	pool []Template
}

// NewSelector создаёт селектор. Пустой pool заменяется стандартным Pool.
func NewSelector(pool []Template) *Selector {
	if len(pool) == 0 {
		pool = Pool
	}
	return &Selector{pool: pool}
}

// Size возвращает N.
func (s *Selector) Size() int {
	return len(s.pool)
}

// Index = (dayOfYear + childID) mod N, всегда в [0, N).
func (s *Selector) Index(child shared.ChildID, day timeutil.Date) int {
	n := int64(len(s.pool))
	i := (int64(day.DayOfYear()) + child.Int64()) % n
	if i < 0 {
		i += n
	}
	return int(i)
}

// ForDay возвращает задание ребёнка на указанный день.
func (s *Selector) ForDay(child shared.ChildID, day timeutil.Date) Template {
	return s.pool[s.Index(child, day)]
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// Completion - отметка о выполнении, уникальна по (ChildID, Date).
// Неверный ответ не записывается, поэтому попытку можно повторить.
type Completion struct {
	ChildID     shared.ChildID
	Date        timeutil.Date
	ChallengeID string
	XP          int
	CompletedAt time.Time
}

// CompletionRepository - журнал выполнений.
type CompletionRepository interface {
	// Get возвращает выполнение за день или ErrNotFound.
	Get(ctx context.Context, child shared.ChildID, day timeutil.Date) (*Completion, error)

	// Insert добавляет строку; inserted=false, если за день уже есть запись.
	Insert(ctx context.Context, c Completion) (bool, error)
}
