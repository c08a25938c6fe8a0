package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusTodo          = "todo"
	TaskStatusNeedsApproval = "needs_approval"
	TaskStatusApproved      = "approved"
	TaskStatusRejected      = "rejected"
	TaskStatusInProgress    = "in_progress"
	TaskStatusBlocked       = "blocked"
	TaskStatusDone          = "done"

	QuestStatusProposed  = "proposed"
	QuestStatusApproved  = "approved"
	QuestStatusRejected  = "rejected"
	QuestStatusActive    = "active"
	QuestStatusCompleted = "completed"

	ImprovementStatusProposed    = "proposed"
	ImprovementStatusApproved    = "approved"
	ImprovementStatusRejected    = "rejected"
	ImprovementStatusImplemented = "implemented"
)

// Approval is embedded by every work item; the fields are written only when
// an item moves into its approved state.
type Approval struct {
	ApprovedBy *string    `db:"approved_by" json:"approved_by"`
	ApprovedAt *time.Time `db:"approved_at" json:"approved_at"`
}

type Task struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SourceRef   *string   `db:"source_ref" json:"source_ref"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Owner       *string   `db:"owner" json:"owner"`
	Priority    string    `db:"priority" json:"priority"`
	Status      string    `db:"status" json:"status"`
	Approval
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Quest struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AgentID     *string   `db:"agent_id" json:"agent_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Reward      int       `db:"reward" json:"reward"`
	Status      string    `db:"status" json:"status"`
	Approval
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Improvement struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SourceRef   string    `db:"source_ref" json:"source_ref"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Impact      string    `db:"impact" json:"impact"`
	AgentID     *string   `db:"agent_id" json:"agent_id"`
	Status      string    `db:"status" json:"status"`
	Approval
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
