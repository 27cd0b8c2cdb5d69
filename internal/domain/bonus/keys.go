package bonus

import (
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// TaskKey - ключ идемпотентности для награды за задание.
func TaskKey(id shared.TaskID) string {
	return "task:" + id.String()
}

// MilestoneKey - ключ идемпотентности для бонуса за уровень.
func MilestoneKey(child shared.ChildID, level int) string {
	return fmt.Sprintf("milestone:%d:%d", child, level)
}

// GuardianKey - ключ идемпотентности для бонуса выпускника.
func GuardianKey(child shared.ChildID, tier int) string {
	return fmt.Sprintf("guardian:%d:%d", child, tier)
}
