// Package challenge - Daily Challenge Selector.
//
// Выбор задания дня детерминирован и не хранит состояния:
// index = (dayOfYear(today) + childID) mod N. Повторное чтение в течение дня
// всегда даёт то же задание; выполнение фиксируется не более одного раза в день.
package challenge

// Template - шаблон ежедневного вопроса.
type Template struct {
	ID       string
	Prompt   string
	Options  []string
	Correct  int
	RewardXP int
}

// IsCorrect проверяет ответ.
func (t Template) IsCorrect(answer int) bool {
	return answer == t.Correct
}

// ValidAnswer проверяет, что индекс ответа в диапазоне вариантов.
func (t Template) ValidAnswer(answer int) bool {
	return answer >= 0 && answer < len(t.Options)
}

// Pool - фиксированный упорядоченный набор шаблонов.
// Порядок важен: он определяет, какой вопрос достаётся ребёнку в какой день.
var Pool = []Template{
	{
		ID:       "sats-per-bitcoin",
		Prompt:   "How many sats make one bitcoin?",
		Options:  []string{"1,000", "1,000,000", "100,000,000", "21,000,000"},
		Correct:  2,
		RewardXP: 20,
	},
	{
		ID:       "max-supply",
		Prompt:   "How many bitcoin will ever exist?",
		Options:  []string{"21 million", "100 million", "No limit", "1 billion"},
		Correct:  0,
		RewardXP: 20,
	},
	{
		ID:       "save-or-spend",
		Prompt:   "You earn 500 sats. Which choice grows your savings?",
		Options:  []string{"Spend all of it", "Save part of it", "Give it all away", "Forget about it"},
		Correct:  1,
		RewardXP: 15,
	},
	{
		ID:       "private-key",
		Prompt:   "Who should know your wallet's secret words?",
		Options:  []string{"Your friends", "Your teacher", "Only you (and your parents)", "Everyone online"},
		Correct:  2,
		RewardXP: 25,
	},
	{
		ID:       "halving",
		Prompt:   "About how often does the bitcoin block reward halve?",
		Options:  []string{"Every year", "Every 4 years", "Every 10 years", "Never"},
		Correct:  1,
		RewardXP: 25,
	},
	{
		ID:       "block-time",
		Prompt:   "On average, how often is a new bitcoin block found?",
		Options:  []string{"Every second", "Every 10 minutes", "Every day", "Every month"},
		Correct:  1,
		RewardXP: 20,
	},
	{
		ID:       "lightning",
		Prompt:   "What is the Lightning Network used for?",
		Options:  []string{"Fast, small payments", "Weather reports", "Charging phones", "Mining gold"},
		Correct:  0,
		RewardXP: 20,
	},
	{
		ID:       "needs-wants",
		Prompt:   "Which of these is a need, not a want?",
		Options:  []string{"A new video game", "Healthy food", "Candy", "A third pair of sneakers"},
		Correct:  1,
		RewardXP: 15,
	},
	{
		ID:       "inflation",
		Prompt:   "If prices go up every year, what happens to money in a piggy bank?",
		Options:  []string{"It buys more", "It buys less", "It buys the same", "It multiplies"},
		Correct:  1,
		RewardXP: 25,
	},
	{
		ID:       "creator",
		Prompt:   "Who published the bitcoin whitepaper?",
		Options:  []string{"Satoshi Nakamoto", "A big bank", "The government", "Nobody knows anything about it"},
		Correct:  0,
		RewardXP: 15,
	},
	{
		ID:       "goal-saving",
		Prompt:   "You want a 3,000 sat toy and save 300 sats a week. How many weeks?",
		Options:  []string{"3", "10", "30", "300"},
		Correct:  1,
		RewardXP: 30,
	},
	{
		ID:       "scam-check",
		Prompt:   "Someone online promises to double your sats. What do you do?",
		Options:  []string{"Send them sats", "Tell a parent and ignore it", "Send half", "Share your secret words"},
		Correct:  1,
		RewardXP: 30,
	},
}
