package model

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

const TitleMaxLength = 200

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"size:200;not null"`
	Description *string    `gorm:"type:text"`
	Completed   bool       `gorm:"not null"`
	Priority    Priority   `gorm:"size:10;not null"`
	Status      Status     `gorm:"size:15;not null"`
	DueDate     *time.Time `gorm:"index"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime:false"`
	OwnerID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`

	Owner User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// SetStatus changes the status and keeps Completed in step with it.
// Only StatusCompleted yields Completed == true; cancelled counts as not done.
func (t *Task) SetStatus(s Status) {
	t.Status = s
	t.Completed = s == StatusCompleted
}
