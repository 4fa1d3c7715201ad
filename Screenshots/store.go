// Package Screenshots stores proof-of-work captures attached to sessions.
package Screenshots

import (
	"context"
	"strings"
	"time"

	"Chronos/AppErrors"
	"Chronos/Identity"
	"Chronos/Models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Default query windows when no dates are given.
var (
	SelfWindow     = Models.Window{Days: 0}
	EmployeeWindow = Models.Window{Days: 7}
)

type Store struct {
	DB        *gorm.DB
	UploadDir string
	// PublicPrefix is the URL path uploads are served under.
	PublicPrefix string
	Now          func() time.Time
}

func NewStore(db *gorm.DB, uploadDir string) *Store {
	return &Store{DB: db, UploadDir: uploadDir, PublicPrefix: "/uploads"}
}

type RecordInput struct {
	SessionID     string
	EmployeeID    string
	ImageURL      string
	ThumbnailURL  string
	Timestamp     *time.Time
	HasPermission *bool
	Metadata      map[string]interface{}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Record stores a screenshot against one of the employee's sessions, open or
// closed.
func (s *Store) Record(ctx context.Context, input RecordInput) (*Models.Screenshot, error) {
	if strings.TrimSpace(input.ImageURL) == "" {
		return nil, AppErrors.Validation("imageUrl is required")
	}
	db := s.DB.WithContext(ctx)
	if err := requireOwnSession(db, input.SessionID, input.EmployeeID); err != nil {
		return nil, err
	}

	screenshot := Models.Screenshot{
		TimeLogID:     input.SessionID,
		EmployeeID:    input.EmployeeID,
		ImageURL:      strings.TrimSpace(input.ImageURL),
		ThumbnailURL:  input.ThumbnailURL,
		Timestamp:     s.now(),
		HasPermission: true,
	}
	if input.Timestamp != nil {
		screenshot.Timestamp = input.Timestamp.UTC()
	}
	if input.HasPermission != nil {
		screenshot.HasPermission = *input.HasPermission
	}
	if len(input.Metadata) > 0 {
		screenshot.Metadata = datatypes.JSONMap(input.Metadata)
	}
	if err := db.Create(&screenshot).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to store screenshot")
	}
	return &screenshot, nil
}

// ListBySession returns a session's screenshots, oldest first. Only the
// session's owner and managers may read them.
func (s *Store) ListBySession(ctx context.Context, sessionID string, caller Identity.Caller) ([]Models.Screenshot, error) {
	db := s.DB.WithContext(ctx)
	var session Models.TimeLog
	if err := db.Select("id", "employee_id").First(&session, "id = ?", sessionID).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.NotFound("Time log not found")
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve time log")
	}
	if !caller.CanAccess(session.EmployeeID) {
		return nil, AppErrors.Forbidden("Unauthorized access to screenshots")
	}

	screenshots := []Models.Screenshot{}
	if err := db.Where("time_log_id = ?", sessionID).Order("timestamp ASC").Find(&screenshots).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve screenshots")
	}
	return screenshots, nil
}

// ListByEmployeeRange returns the employee's screenshots with start <= timestamp
// <= end, newest first, each with a summary of its session.
func (s *Store) ListByEmployeeRange(ctx context.Context, employeeID string, start, end time.Time) ([]Models.Screenshot, error) {
	screenshots := []Models.Screenshot{}
	err := s.DB.WithContext(ctx).
		Preload("TimeLog", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "employee_id", "start_time", "end_time", "duration", "task_id", "project_id")
		}).
		Where("employee_id = ? AND timestamp BETWEEN ? AND ?", employeeID, start.UTC(), end.UTC()).
		Order("timestamp DESC").
		Find(&screenshots).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve screenshots")
	}
	return screenshots, nil
}

func (s *Store) Delete(ctx context.Context, screenshotID string) error {
	result := s.DB.WithContext(ctx).Where("id = ?", screenshotID).Delete(&Models.Screenshot{})
	if result.Error != nil {
		return AppErrors.Internal(result.Error, "Failed to delete screenshot")
	}
	if result.RowsAffected == 0 {
		return AppErrors.NotFound("Screenshot not found")
	}
	return nil
}

func requireOwnSession(db *gorm.DB, sessionID, employeeID string) error {
	var count int64
	err := db.Model(&Models.TimeLog{}).
		Where("id = ? AND employee_id = ?", sessionID, employeeID).
		Count(&count).Error
	if err != nil {
		return AppErrors.Internal(err, "Failed to retrieve time log")
	}
	if count == 0 {
		return AppErrors.NotFound("Time log not found or unauthorized")
	}
	return nil
}
