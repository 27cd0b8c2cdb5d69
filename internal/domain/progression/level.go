// Package progression - Progression Calculator: уровень по домашним заданиям,
// отдельный уровень обучения по XP, серии (streak) и уровень Guardian.
//
// Все значения выводятся из монотонных счётчиков, поэтому прогресс никогда
// не уменьшается.
package progression

// ══════════════════════════════════════════════════════════════════════════════
// CHORE TRACK
// ══════════════════════════════════════════════════════════════════════════════

const (
	// ChoresPerLevel - сколько одобренных заданий даёт один уровень.
	ChoresPerLevel = 3

	// MaxChoreLevel - потолок уровня (30 заданий). Дальше уровень не растёт,
	// поэтому и бонусы за уровни выше 10 не выдаются.
	MaxChoreLevel = 10
)

// ChoreLevel = min(approved/3, 10). Ниже 3 заданий уровень 0.
func ChoreLevel(approvedCount int) int {
	if approvedCount < ChoresPerLevel {
		return 0
	}
	level := approvedCount / ChoresPerLevel
	if level > MaxChoreLevel {
		return MaxChoreLevel
	}
	return level
}

// ChoresToNextLevel возвращает, сколько заданий осталось до следующего уровня.
// На максимальном уровне возвращает 0.
func ChoresToNextLevel(approvedCount int) int {
	level := ChoreLevel(approvedCount)
	if level >= MaxChoreLevel {
		return 0
	}
	if approvedCount < 0 {
		approvedCount = 0
	}
	return (level+1)*ChoresPerLevel - approvedCount
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING TRACK
// ══════════════════════════════════════════════════════════════════════════════

// learningThresholds[i] - минимальный XP для уровня i+1.
var learningThresholds = [...]int{0, 100, 250, 500, 800, 1200, 1700, 2300, 3000, 4000}

// MaxLearningLevel - последний уровень таблицы.
const MaxLearningLevel = len(learningThresholds)

// LearningLevel возвращает уровень обучения (1..10) по накопленному XP.
func LearningLevel(xp int) int {
	level := 1
	for i, threshold := range learningThresholds {
		if xp >= threshold {
			level = i + 1
		}
	}
	return level
}

// XPToNextLevel возвращает XP до следующего уровня (0 на максимальном).
func XPToNextLevel(xp int) int {
	level := LearningLevel(xp)
	if level >= MaxLearningLevel {
		return 0
	}
	return learningThresholds[level] - xp
}

// LevelThreshold возвращает минимальный XP уровня (1..10).
func LevelThreshold(level int) int {
	if level < 1 {
		return 0
	}
	if level > MaxLearningLevel {
		level = MaxLearningLevel
	}
	return learningThresholds[level-1]
}
