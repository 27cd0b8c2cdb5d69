// Package unlock реализует Unlock Gate: выполненные обязательные задания
// открывают слоты для оплачиваемых заданий в соотношении Ratio к одному.
// Это чистый расчёт по двум монотонным счётчикам; отдельная запись "слотов"
// не хранится.
package unlock

// Ratio - сколько обязательных заданий открывают один оплачиваемый слот.
const Ratio = 3

// Status - состояние Unlock Gate для ребёнка.
type Status struct {
	// FreeSlots - сколько оплачиваемых заданий можно принять прямо сейчас.
	FreeSlots int `json:"freeSlots"`

	// ProgressToNext - выполнено обязательных заданий к следующему слоту (0..Ratio-1).
	ProgressToNext int `json:"progressToNext"`

	// Required - Ratio, чтобы клиент мог показать "2/3".
	Required int `json:"required"`

	CompletedRequired int `json:"completedRequired"`
	PaidConsumed      int `json:"paidConsumed"`
}

// Evaluate вычисляет состояние по счётчикам.
func Evaluate(completedRequired, paidConsumed int) Status {
	return Status{
		FreeSlots:         FreeSlots(completedRequired, paidConsumed),
		ProgressToNext:    ProgressToNext(completedRequired),
		Required:          Ratio,
		CompletedRequired: completedRequired,
		PaidConsumed:      paidConsumed,
	}
}

// FreeSlots = max(0, completedRequired/Ratio - paidConsumed).
func FreeSlots(completedRequired, paidConsumed int) int {
	if completedRequired < 0 {
		completedRequired = 0
	}
	free := completedRequired/Ratio - paidConsumed
	if free < 0 {
		return 0
	}
	return free
}

// ProgressToNext = completedRequired mod Ratio.
func ProgressToNext(completedRequired int) int {
	if completedRequired < 0 {
		return 0
	}
	return completedRequired % Ratio
}

// CanAccept возвращает true, если есть свободный слот.
func (s Status) CanAccept() bool {
	return s.FreeSlots > 0
}
