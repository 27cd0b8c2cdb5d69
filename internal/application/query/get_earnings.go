package query

import (
	"context"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET EARNINGS QUERY
// Журнал выплат ребёнка и его стоимость в EUR по текущему курсу BTC.
// Недоступный курс только убирает EUR-оценку из ответа.
// ══════════════════════════════════════════════════════════════════════════════

// GetEarningsQuery - параметры запроса.
type GetEarningsQuery struct {
	ChildID shared.ChildID

	// Limit - число последних записей (по умолчанию 50, максимум 500).
	Limit int
}

// Validate проверяет параметры и подставляет значения по умолчанию.
func (q *GetEarningsQuery) Validate() error {
	if !q.ChildID.IsValid() {
		return invalid("GetEarnings", "child id must be positive")
	}
	if q.Limit < 0 {
		return invalid("GetEarnings", "limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	return nil
}

// EarningDTO - строка журнала.
type EarningDTO struct {
	Sats           int64     `json:"sats"`
	Reason         string    `json:"reason"`
	Reference      string    `json:"reference"`
	CumulativeSats int64     `json:"cumulativeSats"`
	BTCPriceEUR    *float64  `json:"btcPriceEur,omitempty"`
	ValueEUR       *float64  `json:"valueEur,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SeriesDTO - статистика ряда для графика стоимости.
type SeriesDTO struct {
	Points      int        `json:"points"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	MinValueEUR *float64   `json:"minValueEur,omitempty"`
	MaxValueEUR *float64   `json:"maxValueEur,omitempty"`
	MinPriceEUR *float64   `json:"minBtcPriceEur,omitempty"`
	MaxPriceEUR *float64   `json:"maxBtcPriceEur,omitempty"`
}

// EarningsDTO - ответ getEarnings.
type EarningsDTO struct {
	ChildID   int64        `json:"childId"`
	TotalSats int64        `json:"totalSats"`
	Entries   []EarningDTO `json:"entries"`
	Series    SeriesDTO    `json:"series"`
	PriceEUR  *float64     `json:"btcPriceEur,omitempty"`
	ValueEUR  *float64     `json:"valueEur,omitempty"`
}

// GetEarningsHandler обрабатывает запрос.
type GetEarningsHandler struct {
	uow      family.UnitOfWorkFactory
	feed     earnings.PriceFeed
	currency string
	log      *logger.Logger
}

// NewGetEarningsHandler создаёт обработчик. feed может быть nil.
func NewGetEarningsHandler(uow family.UnitOfWorkFactory, feed earnings.PriceFeed, currency string, log *logger.Logger) *GetEarningsHandler {
	if currency == "" {
		currency = "eur"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &GetEarningsHandler{uow: uow, feed: feed, currency: currency, log: log.With(logger.Component("earnings"))}
}

// Handle выполняет запрос.
func (h *GetEarningsHandler) Handle(ctx context.Context, q GetEarningsQuery) (*EarningsDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	summary, err := read(ctx, h.uow, "get_earnings", func(repos family.Repositories) (*earnings.Summary, error) {
		if _, err := repos.Children().GetByID(ctx, q.ChildID); err != nil {
			return nil, err
		}
		entries, err := repos.Earnings().ListByChild(ctx, q.ChildID, q.Limit)
		if err != nil {
			return nil, err
		}
		total, err := repos.Earnings().Total(ctx, q.ChildID)
		if err != nil {
			return nil, err
		}
		return &earnings.Summary{
			ChildID:   q.ChildID,
			TotalSats: total,
			Entries:   entries,
			Series:    earnings.SeriesOf(entries),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	// Курс запрашивается после закрытия транзакции.
	if h.feed != nil {
		price, err := h.feed.BTCPrice(ctx, h.currency)
		if err != nil {
			h.log.Info("btc price unavailable, eur value omitted", logger.Err(err))
		} else {
			value := earnings.EURValue(summary.TotalSats, price)
			summary.PriceEUR = &price
			summary.ValueEUR = &value
		}
	}

	return earningsDTO(summary), nil
}

func earningsDTO(s *earnings.Summary) *EarningsDTO {
	out := &EarningsDTO{
		ChildID:   s.ChildID.Int64(),
		TotalSats: s.TotalSats.Int64(),
		Entries:   make([]EarningDTO, 0, len(s.Entries)),
		Series:    seriesDTO(s.Series),
		PriceEUR:  s.PriceEUR,
		ValueEUR:  s.ValueEUR,
	}
	for _, e := range s.Entries {
		entry := EarningDTO{
			Sats:           e.Sats.Int64(),
			Reason:         string(e.Reason),
			Reference:      e.Reference,
			CumulativeSats: e.CumulativeSats.Int64(),
			BTCPriceEUR:    e.BTCPriceEUR,
			CreatedAt:      e.CreatedAt,
		}
		if v, ok := e.EURValue(); ok {
			entry.ValueEUR = &v
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

func seriesDTO(s earnings.Series) SeriesDTO {
	out := SeriesDTO{
		Points:      s.Points,
		MinValueEUR: s.MinValueEUR,
		MaxValueEUR: s.MaxValueEUR,
		MinPriceEUR: s.MinPriceEUR,
		MaxPriceEUR: s.MaxPriceEUR,
	}
	if s.Points > 0 {
		from, to := s.From, s.To
		out.From, out.To = &from, &to
	}
	return out
}
