// Package learning - каталог обучающих модулей (Bitcoin и сбережения) и
// проверка ответов. Порядок вариантов в каждом вопросе перемешивается
// детерминированно по (moduleID, номер вопроса).
package learning

import (
	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// Question - вопрос модуля. Correct - индекс в исходном (не перемешанном) порядке.
type Question struct {
	Prompt  string
	Options []string
	Correct int
}

// Module - обучающий модуль.
type Module struct {
	ID        string
	Title     string
	Summary   string
	RewardXP  int
	Questions []Question
}

// Catalog - фиксированный набор модулей в порядке прохождения.
var Catalog = []Module{
	{
		ID:       "money-basics",
		Title:    "What is money?",
		Summary:  "Why people use money and what makes it good.",
		RewardXP: 50,
		Questions: []Question{
			{Prompt: "Before money, people traded by...", Options: []string{"Bartering goods", "Sending emails", "Using credit cards"}, Correct: 0},
			{Prompt: "Good money should be...", Options: []string{"Easy to copy", "Hard to fake", "Heavy to carry"}, Correct: 1},
			{Prompt: "Money helps us to...", Options: []string{"Compare prices", "Grow taller", "Stop time"}, Correct: 0},
		},
	},
	{
		ID:       "saving",
		Title:    "Saving for a goal",
		Summary:  "Setting goals and putting sats aside.",
		RewardXP: 75,
		Questions: []Question{
			{Prompt: "A savings goal is...", Options: []string{"Something you plan to buy later", "A football term", "A type of coin"}, Correct: 0},
			{Prompt: "Saving 100 sats a day for 10 days gives...", Options: []string{"100 sats", "1,000 sats", "10,000 sats"}, Correct: 1},
			{Prompt: "The best time to start saving is...", Options: []string{"Never", "Today", "When you are 40"}, Correct: 1},
		},
	},
	{
		ID:       "bitcoin-basics",
		Title:    "Bitcoin basics",
		Summary:  "Blocks, miners and the 21 million limit.",
		RewardXP: 100,
		Questions: []Question{
			{Prompt: "Bitcoin is run by...", Options: []string{"One company", "A network of computers", "A single bank"}, Correct: 1},
			{Prompt: "The smallest unit of bitcoin is a...", Options: []string{"Sat", "Cent", "Byte"}, Correct: 0},
			{Prompt: "New bitcoin are created by...", Options: []string{"Printing", "Mining", "Asking nicely"}, Correct: 1},
			{Prompt: "The supply of bitcoin is...", Options: []string{"Unlimited", "Capped at 21 million", "Doubled every year"}, Correct: 1},
		},
	},
	{
		ID:       "wallet-safety",
		Title:    "Keeping your wallet safe",
		Summary:  "Seed words, scams and who to trust.",
		RewardXP: 120,
		Questions: []Question{
			{Prompt: "Your seed words should be...", Options: []string{"Posted online", "Kept secret and safe", "Told to friends"}, Correct: 1},
			{Prompt: "A message promising free bitcoin is probably...", Options: []string{"A scam", "A gift", "A bug"}, Correct: 0},
			{Prompt: "If you lose your seed words you may...", Options: []string{"Lose your sats", "Get more sats", "Nothing happens"}, Correct: 0},
		},
	},
	{
		ID:       "lightning",
		Title:    "Lightning payments",
		Summary:  "How small payments like chore rewards travel fast.",
		RewardXP: 150,
		Questions: []Question{
			{Prompt: "Lightning payments are...", Options: []string{"Slow and expensive", "Fast and cheap", "Made of paper"}, Correct: 1},
			{Prompt: "A Lightning invoice is...", Options: []string{"A request for payment", "A weather alert", "A receipt from a shop"}, Correct: 0},
			{Prompt: "Lightning works on top of...", Options: []string{"Email", "Bitcoin", "Television"}, Correct: 1},
		},
	},
}

// FindModule возвращает модуль по ID или ErrModuleNotFound.
func FindModule(id string) (Module, error) {
	for _, m := range Catalog {
		if m.ID == id {
			return m, nil
		}
	}
	return Module{}, shared.ErrModuleNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

// QuizQuestion - вопрос в том виде, в котором его видит ребёнок.
type QuizQuestion struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Quiz возвращает вопросы модуля с перемешанными вариантами (без правильных ответов).
func (m Module) Quiz() []QuizQuestion {
	out := make([]QuizQuestion, len(m.Questions))
	for i, q := range m.Questions {
		options, _ := challenge.ShuffleOptions(m.ID, i, q.Options)
		out[i] = QuizQuestion{Index: i, Prompt: q.Prompt, Options: options}
	}
	return out
}

// GradeResult - итог проверки ответов.
type GradeResult struct {
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
	Passed  bool `json:"passed"`
}

// Grade проверяет ответы. answers[i] - индекс в перемешанном порядке вопроса i.
// Модуль засчитывается, только если все ответы верные.
func (m Module) Grade(answers []int) (GradeResult, error) {
	if len(answers) != len(m.Questions) {
		return GradeResult{}, shared.NewDomainError("learning", "Grade", shared.ErrValidation, "answer count does not match question count")
	}

	res := GradeResult{Total: len(m.Questions)}
	for i, q := range m.Questions {
		if answers[i] < 0 || answers[i] >= len(q.Options) {
			return GradeResult{}, shared.NewDomainError("learning", "Grade", shared.ErrValidation, "answer index out of range")
		}
		perm := challenge.Permutation(len(q.Options), challenge.Seed(m.ID, i))
		if perm[answers[i]] == q.Correct {
			res.Correct++
		}
	}
	res.Passed = res.Correct == res.Total
	return res, nil
}

// CorrectAnswers возвращает индексы правильных ответов в перемешанном порядке.
func (m Module) CorrectAnswers() []int {
	out := make([]int, len(m.Questions))
	for i, q := range m.Questions {
		perm := challenge.Permutation(len(q.Options), challenge.Seed(m.ID, i))
		for pos, src := range perm {
			if src == q.Correct {
				out[i] = pos
				break
			}
		}
	}
	return out
}
