// Package earnings - журнал заработанных сатоши (одна строка на каждую
// успешную выплату) с накопительной суммой и EUR-оценкой по курсу BTC.
package earnings

import (
	"context"
	"math"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// Entry - строка журнала. Reference уникален.
type Entry struct {
	ID      int64
	ChildID shared.ChildID
	Sats    shared.Sats
	Reason  settlement.Reason

	// Reference - ключ идемпотентности выплаты.
	Reference string

	// CumulativeSats - сумма всех выплат ребёнка включая эту. Заполняется хранилищем.
	CumulativeSats shared.Sats

	// BTCPriceEUR - курс на момент выплаты, если он был доступен.
	BTCPriceEUR *float64

	CreatedAt time.Time
}

// EURValue возвращает стоимость накопленной суммы по курсу на момент записи.
func (e Entry) EURValue() (float64, bool) {
	if e.BTCPriceEUR == nil {
		return 0, false
	}
	return EURValue(e.CumulativeSats, *e.BTCPriceEUR), true
}

// EURValue = sats / 1e8 * price, с округлением до цента.
func EURValue(sats shared.Sats, priceEUR float64) float64 {
	return math.Round(sats.BTC()*priceEUR*100) / 100
}

// Series - статистика ряда "стоимость в EUR / курс BTC" по журналу.
// Записи без курса учитываются только во временном диапазоне.
type Series struct {
	Points int

	From time.Time
	To   time.Time

	MinValueEUR *float64
	MaxValueEUR *float64
	MinPriceEUR *float64
	MaxPriceEUR *float64
}

// SeriesOf считает статистику. Порядок entries не важен.
func SeriesOf(entries []Entry) Series {
	var s Series
	for _, e := range entries {
		s.Points++
		if s.From.IsZero() || e.CreatedAt.Before(s.From) {
			s.From = e.CreatedAt
		}
		if e.CreatedAt.After(s.To) {
			s.To = e.CreatedAt
		}

		value, ok := e.EURValue()
		if !ok {
			continue
		}
		price := *e.BTCPriceEUR
		s.MinValueEUR = minOf(s.MinValueEUR, value)
		s.MaxValueEUR = maxOf(s.MaxValueEUR, value)
		s.MinPriceEUR = minOf(s.MinPriceEUR, price)
		s.MaxPriceEUR = maxOf(s.MaxPriceEUR, price)
	}
	return s
}

func minOf(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func maxOf(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

// Summary - сводка для getEarnings.
type Summary struct {
	ChildID   shared.ChildID
	TotalSats shared.Sats
	Entries   []Entry
	Series    Series

	// PriceEUR и ValueEUR пусты, если курс недоступен.
	PriceEUR *float64
	ValueEUR *float64
}

// PriceFeed - источник текущего курса BTC.
type PriceFeed interface {
	// BTCPrice возвращает цену одного BTC в валюте (например "eur").
	BTCPrice(ctx context.Context, currency string) (float64, error)
}

// Repository - журнал выплат.
type Repository interface {
	// Append добавляет строку, вычисляя CumulativeSats.
	// inserted=false, если строка с таким Reference уже есть.
	Append(ctx context.Context, e *Entry) (bool, error)

	// ListByChild возвращает строки ребёнка от новых к старым.
	ListByChild(ctx context.Context, child shared.ChildID, limit int) ([]Entry, error)

	// Total возвращает сумму всех выплат ребёнка.
	Total(ctx context.Context, child shared.ChildID) (shared.Sats, error)
}
