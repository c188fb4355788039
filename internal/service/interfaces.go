package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/limbo/discipline/pkg/entity"
)

type ActionType string

const (
	ActionCheckIn        ActionType = "check-in"
	ActionUndo           ActionType = "undo"
	ActionToggleStatus   ActionType = "toggle-status"
	ActionUpdateProgress ActionType = "update-progress"
)

// Action is one check-in mutation. An empty DateKey means today.
type Action struct {
	Type    ActionType     `json:"action" validate:"required,oneof=check-in undo toggle-status update-progress"`
	DateKey entity.DateKey `json:"date,omitempty" validate:"omitempty,datekey"`
	Value   *float64       `json:"value,omitempty" validate:"required_if=Type update-progress"`
}

type HabitAnalyticsServiceI interface {
	// Returns cached analytics of habitID, loading it from the store on first use
	GetAnalytics(ctx context.Context, habitID uuid.UUID) (entity.Analytics, error)
	// Returns insights over the cached history of habitID
	GetInsights(ctx context.Context, habitID uuid.UUID) ([]entity.Insight, error)
	// Applies action optimistically, writes it to the store and settles the cache
	Mutate(ctx context.Context, habitID uuid.UUID, action Action) error
	// Replays queued writes. Returns how many reached the store
	Flush(ctx context.Context) (int, error)
}
