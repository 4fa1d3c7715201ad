package Models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTaskName is the name given to the task created with every project.
const DefaultTaskName = "Default Task"

type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Task belongs to exactly one project. DefaultSlot holds the project id on the
// project's default task and is NULL elsewhere, so the unique index allows
// one default task per project.
type Task struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID   string    `gorm:"size:36;not null;index" json:"projectId"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"isActive"`
	IsDefault   bool      `gorm:"not null;index" json:"isDefault"`
	DefaultSlot *string   `gorm:"size:36;uniqueIndex" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.IsDefault {
		slot := t.ProjectID
		t.DefaultSlot = &slot
	}
	return nil
}

// NewDefaultTask builds the default task for a project.
func NewDefaultTask(projectID string) Task {
	return Task{
		ProjectID:   projectID,
		Name:        DefaultTaskName,
		Description: "Default task for the project",
		IsActive:    true,
		IsDefault:   true,
	}
}

type EmployeeProject struct {
	EmployeeID string    `gorm:"primaryKey;size:36" json:"employeeId"`
	ProjectID  string    `gorm:"primaryKey;size:36;index" json:"projectId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (EmployeeProject) TableName() string { return "employee_projects" }

type EmployeeTask struct {
	EmployeeID string    `gorm:"primaryKey;size:36" json:"employeeId"`
	TaskID     string    `gorm:"primaryKey;size:36;index" json:"taskId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (EmployeeTask) TableName() string { return "employee_tasks" }
