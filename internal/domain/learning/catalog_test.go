package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

func TestCatalog_WellFormed(t *testing.T) {
	ids := map[string]bool{}
	for _, m := range Catalog {
		assert.False(t, ids[m.ID], m.ID)
		ids[m.ID] = true
		assert.Positive(t, m.RewardXP)
		require.NotEmpty(t, m.Questions, m.ID)
		for _, q := range m.Questions {
			assert.Less(t, q.Correct, len(q.Options))
		}
	}
}

func TestFindModule(t *testing.T) {
	m, err := FindModule("saving")
	require.NoError(t, err)
	assert.Equal(t, "Saving for a goal", m.Title)

	_, err = FindModule("nope")
	assert.True(t, shared.IsNotFound(err))
}

func TestQuiz_StableAndHidesAnswers(t *testing.T) {
	m, _ := FindModule("bitcoin-basics")

	first := m.Quiz()
	second := m.Quiz()
	assert.Equal(t, first, second)
	require.Len(t, first, len(m.Questions))
	for i, q := range first {
		assert.ElementsMatch(t, m.Questions[i].Options, q.Options)
	}
}

func TestGrade_CorrectAnswersPass(t *testing.T) {
	m, _ := FindModule("wallet-safety")
	answers := m.CorrectAnswers()

	res, err := m.Grade(answers)
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, len(m.Questions), res.Correct)

	quiz := m.Quiz()
	for i, pos := range answers {
		assert.Equal(t, m.Questions[i].Options[m.Questions[i].Correct], quiz[i].Options[pos])
	}
}

func TestGrade_WrongAnswerFails(t *testing.T) {
	m, _ := FindModule("saving")
	answers := m.CorrectAnswers()
	answers[0] = (answers[0] + 1) % len(m.Questions[0].Options)

	res, err := m.Grade(answers)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, len(m.Questions)-1, res.Correct)
}

func TestGrade_Validation(t *testing.T) {
	m, _ := FindModule("saving")

	_, err := m.Grade([]int{0})
	assert.True(t, shared.IsValidation(err))

	_, err = m.Grade([]int{0, 0, 9})
	assert.True(t, shared.IsValidation(err))
}
