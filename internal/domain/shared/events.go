// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events are published after the owning transaction commits.
const (
	// Chore events
	EventTaskCreated   EventType = "task.created"
	EventTaskAccepted  EventType = "task.accepted"
	EventTaskSubmitted EventType = "task.submitted"
	EventTaskApproved  EventType = "task.approved"
	EventTaskDeleted   EventType = "task.deleted"

	// Progression events
	EventChoreLevelUp  EventType = "progression.chore_level_up"
	EventMilestonePaid EventType = "progression.milestone_paid"

	// Learning events
	EventChallengeCompleted   EventType = "learning.challenge_completed"
	EventModuleCompleted      EventType = "learning.module_completed"
	EventStreakUpdated        EventType = "learning.streak_updated"
	EventGuardianLevelUp      EventType = "learning.guardian_level_up"
	EventGuardianBonusClaimed EventType = "learning.guardian_bonus_claimed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Family      FamilyID  `json:"family_id,omitempty"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// FamilyID returns the household the event belongs to (may be empty).
func (e BaseEvent) FamilyID() FamilyID {
	return e.Family
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, family FamilyID) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Family:      family,
		Version:     1,
	}
}

// FamilyScoped is implemented by events that carry a family id.
type FamilyScoped interface {
	FamilyID() FamilyID
}

// ═══════════════════════════════════════════════════════════════════════════
// Chore Events
// ═══════════════════════════════════════════════════════════════════════════

// TaskEvent covers the simple lifecycle transitions (created, accepted,
// submitted, deleted).
type TaskEvent struct {
	BaseEvent
	TaskID  TaskID  `json:"task_id"`
	ChildID ChildID `json:"child_id,omitempty"`
}

// Payload implements Event interface.
func (e TaskEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"task_id":   e.TaskID.String(),
		"child_id":  e.ChildID.Int64(),
		"family_id": e.Family.String(),
	}
}

// NewTaskEvent creates a lifecycle event for a task.
func NewTaskEvent(eventType EventType, family FamilyID, taskID TaskID, childID ChildID) TaskEvent {
	return TaskEvent{
		BaseEvent: NewBaseEvent(eventType, taskID.String(), family),
		TaskID:    taskID,
		ChildID:   childID,
	}
}

// TaskApprovedEvent is emitted once per task, when the approval commits.
type TaskApprovedEvent struct {
	BaseEvent
	TaskID     TaskID  `json:"task_id"`
	ChildID    ChildID `json:"child_id"`
	Sats       Sats    `json:"sats"`
	IsRequired bool    `json:"is_required"`
	Reference  string  `json:"settlement_reference,omitempty"`
}

// Payload implements Event interface.
func (e TaskApprovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"task_id":              e.TaskID.String(),
		"child_id":             e.ChildID.Int64(),
		"family_id":            e.Family.String(),
		"sats":                 e.Sats.Int64(),
		"is_required":          e.IsRequired,
		"settlement_reference": e.Reference,
	}
}

// NewTaskApprovedEvent creates a new TaskApprovedEvent.
func NewTaskApprovedEvent(family FamilyID, taskID TaskID, childID ChildID, sats Sats, isRequired bool, reference string) TaskApprovedEvent {
	return TaskApprovedEvent{
		BaseEvent:  NewBaseEvent(EventTaskApproved, taskID.String(), family),
		TaskID:     taskID,
		ChildID:    childID,
		Sats:       sats,
		IsRequired: isRequired,
		Reference:  reference,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// ChoreLevelUpEvent is emitted when the cached chore level of a child advances.
type ChoreLevelUpEvent struct {
	BaseEvent
	ChildID  ChildID `json:"child_id"`
	OldLevel int     `json:"old_level"`
	NewLevel int     `json:"new_level"`
}

// Payload implements Event interface.
func (e ChoreLevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"child_id":  e.ChildID.Int64(),
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewChoreLevelUpEvent creates a new ChoreLevelUpEvent.
func NewChoreLevelUpEvent(family FamilyID, childID ChildID, oldLevel, newLevel int) ChoreLevelUpEvent {
	return ChoreLevelUpEvent{
		BaseEvent: NewBaseEvent(EventChoreLevelUp, childID.String(), family),
		ChildID:   childID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// MilestonePaidEvent is emitted for every level bonus that was settled.
type MilestonePaidEvent struct {
	BaseEvent
	ChildID ChildID `json:"child_id"`
	Level   int     `json:"level"`
	Sats    Sats    `json:"sats"`
}

// Payload implements Event interface.
func (e MilestonePaidEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"child_id": e.ChildID.Int64(),
		"level":    e.Level,
		"sats":     e.Sats.Int64(),
	}
}

// NewMilestonePaidEvent creates a new MilestonePaidEvent.
func NewMilestonePaidEvent(family FamilyID, childID ChildID, level int, sats Sats) MilestonePaidEvent {
	return MilestonePaidEvent{
		BaseEvent: NewBaseEvent(EventMilestonePaid, childID.String(), family),
		ChildID:   childID,
		Level:     level,
		Sats:      sats,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Learning Events
// ═══════════════════════════════════════════════════════════════════════════

// XPAwardedEvent is emitted when a challenge or module grants learning XP.
// Type is either EventChallengeCompleted or EventModuleCompleted.
type XPAwardedEvent struct {
	BaseEvent
	ChildID  ChildID `json:"child_id"`
	SourceID string  `json:"source_id"`
	XP       int     `json:"xp"`
	TotalXP  int     `json:"total_xp"`
	Level    int     `json:"level"`
	Streak   int     `json:"streak"`
}

// Payload implements Event interface.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"child_id":  e.ChildID.Int64(),
		"source_id": e.SourceID,
		"xp":        e.XP,
		"total_xp":  e.TotalXP,
		"level":     e.Level,
		"streak":    e.Streak,
	}
}

// NewXPAwardedEvent creates a new XPAwardedEvent.
func NewXPAwardedEvent(eventType EventType, family FamilyID, childID ChildID, sourceID string, xp, totalXP, level, streak int) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent: NewBaseEvent(eventType, childID.String(), family),
		ChildID:   childID,
		SourceID:  sourceID,
		XP:        xp,
		TotalXP:   totalXP,
		Level:     level,
		Streak:    streak,
	}
}

// GuardianLevelUpEvent is emitted when a streak escalates the guardian level.
type GuardianLevelUpEvent struct {
	BaseEvent
	ChildID       ChildID `json:"child_id"`
	OldLevel      int     `json:"old_level"`
	NewLevel      int     `json:"new_level"`
	LongestStreak int     `json:"longest_streak"`
}

// Payload implements Event interface.
func (e GuardianLevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"child_id":       e.ChildID.Int64(),
		"old_level":      e.OldLevel,
		"new_level":      e.NewLevel,
		"longest_streak": e.LongestStreak,
	}
}

// NewGuardianLevelUpEvent creates a new GuardianLevelUpEvent.
func NewGuardianLevelUpEvent(family FamilyID, childID ChildID, oldLevel, newLevel, longest int) GuardianLevelUpEvent {
	return GuardianLevelUpEvent{
		BaseEvent:     NewBaseEvent(EventGuardianLevelUp, childID.String(), family),
		ChildID:       childID,
		OldLevel:      oldLevel,
		NewLevel:      newLevel,
		LongestStreak: longest,
	}
}

// GuardianBonusClaimedEvent is emitted when a graduation bonus was settled.
type GuardianBonusClaimedEvent struct {
	BaseEvent
	ChildID ChildID `json:"child_id"`
	Tier    int     `json:"tier"`
	Sats    Sats    `json:"sats"`
}

// Payload implements Event interface.
func (e GuardianBonusClaimedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"child_id": e.ChildID.Int64(),
		"tier":     e.Tier,
		"sats":     e.Sats.Int64(),
	}
}

// NewGuardianBonusClaimedEvent creates a new GuardianBonusClaimedEvent.
func NewGuardianBonusClaimedEvent(family FamilyID, childID ChildID, tier int, sats Sats) GuardianBonusClaimedEvent {
	return GuardianBonusClaimedEvent{
		BaseEvent: NewBaseEvent(EventGuardianBonusClaimed, childID.String(), family),
		ChildID:   childID,
		Tier:      tier,
		Sats:      sats,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
