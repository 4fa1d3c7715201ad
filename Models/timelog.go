package Models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TimeLog is one tracked work session. OpenSlot carries the employee id while
// the session is open and NULL once it is closed; its unique index is what
// keeps an employee to a single open session.
type TimeLog struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	EmployeeID string     `gorm:"size:36;not null;index:idx_time_logs_employee_start,priority:1" json:"employeeId"`
	TaskID     string     `gorm:"size:36;not null;index" json:"taskId"`
	ProjectID  string     `gorm:"size:36;not null;index" json:"projectId"`
	StartTime  time.Time  `gorm:"not null;index:idx_time_logs_employee_start,priority:2" json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	Duration   *int64     `json:"duration"`
	Notes      string     `gorm:"type:text" json:"notes"`
	IPAddress  string     `gorm:"size:64" json:"ipAddress,omitempty"`
	MacAddress string     `gorm:"size:64" json:"macAddress,omitempty"`
	OpenSlot   *string    `gorm:"size:36;uniqueIndex" json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Task     *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Project  *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (t *TimeLog) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EndTime == nil {
		slot := t.EmployeeID
		t.OpenSlot = &slot
	}
	return nil
}

func (t *TimeLog) IsOpen() bool {
	return t.EndTime == nil
}

// Close sets the end time and the whole-second duration and frees the open slot.
func (t *TimeLog) Close(end time.Time) {
	end = end.UTC()
	d := DurationSeconds(t.StartTime, end)
	t.EndTime = &end
	t.Duration = &d
	t.OpenSlot = nil
}

// DurationSeconds floors end-start to whole seconds, never below zero.
func DurationSeconds(start, end time.Time) int64 {
	d := int64(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// Screenshot is immutable after creation except for deletion. EmployeeID
// duplicates the owning session's employee for range queries.
type Screenshot struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	TimeLogID     string            `gorm:"size:36;not null;index" json:"timeLogId"`
	EmployeeID    string            `gorm:"size:36;not null;index:idx_screenshots_employee_time,priority:1" json:"employeeId"`
	ImageURL      string            `gorm:"size:1024;not null" json:"imageUrl"`
	ThumbnailURL  string            `gorm:"size:1024" json:"thumbnailUrl,omitempty"`
	Timestamp     time.Time         `gorm:"not null;index:idx_screenshots_employee_time,priority:2" json:"timestamp"`
	HasPermission bool              `gorm:"not null" json:"hasPermission"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`

	TimeLog *TimeLog `gorm:"foreignKey:TimeLogID;constraint:OnDelete:CASCADE" json:"timeLog,omitempty"`
}

func (s *Screenshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
