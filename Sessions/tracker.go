// Package Sessions tracks work sessions. An employee is either idle or has
// exactly one open session; the state is always read from the database.
package Sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"Chronos/AppErrors"
	"Chronos/Assignments"
	"Chronos/Models"

	"gorm.io/gorm"
)

const msgTaskNotAssigned = "Task not found or you are not assigned to it"

var errOpenSlotTaken = errors.New("open session slot taken")

type Tracker struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{DB: db}
}

type StartOptions struct {
	Notes      string
	IPAddress  string
	MacAddress string
}

// EditInput changes only the non-nil fields.
type EditInput struct {
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
}

// Status is an employee's tracking state. CurrentDuration is computed, not
// stored.
type Status struct {
	Active          bool
	TimeLog         *Models.TimeLog
	CurrentDuration int64
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

// Start opens a session on taskID. It fails with Conflict, carrying the open
// session, when the employee is already tracking.
func (t *Tracker) Start(ctx context.Context, employeeID, taskID string, opts StartOptions) (*Models.TimeLog, error) {
	var sessionID string
	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := openSessionOf(tx, employeeID)
		if err != nil {
			return err
		}
		if open != nil {
			return alreadyTracking(open)
		}

		var task Models.Task
		if err := tx.Preload("Project").First(&task, "id = ?", taskID).Error; err != nil {
			if Models.IsNotFound(err) {
				return AppErrors.NotFound(msgTaskNotAssigned)
			}
			return AppErrors.Internal(err, "Failed to retrieve task")
		}
		member, err := Assignments.IsTaskMemberTx(tx, employeeID, taskID)
		if err != nil {
			return err
		}
		if !member {
			return AppErrors.NotFound(msgTaskNotAssigned)
		}
		if !task.IsActive || (task.Project != nil && !task.Project.IsActive) {
			return AppErrors.Forbidden("Task is not active")
		}

		session := Models.TimeLog{
			EmployeeID: employeeID,
			TaskID:     task.ID,
			ProjectID:  task.ProjectID,
			StartTime:  t.now(),
			Notes:      strings.TrimSpace(opts.Notes),
			IPAddress:  opts.IPAddress,
			MacAddress: opts.MacAddress,
		}
		if err := tx.Create(&session).Error; err != nil {
			if Models.IsDuplicateKey(err) {
				return errOpenSlotTaken
			}
			return AppErrors.Internal(err, "Failed to start time tracking")
		}
		sessionID = session.ID
		return nil
	})

	if errors.Is(err, errOpenSlotTaken) {
		// A concurrent start won the unique open slot.
		open, lookupErr := openSessionOf(t.DB.WithContext(ctx), employeeID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if open == nil {
			return nil, AppErrors.Conflict("You already have an active time tracking session")
		}
		return nil, alreadyTracking(open)
	}
	if err != nil {
		return nil, err
	}
	return t.Get(ctx, sessionID)
}

// Stop closes the employee's open session sessionID. Sessions that are
// closed or belong to someone else are reported as NotFound.
func (t *Tracker) Stop(ctx context.Context, sessionID, employeeID, notes string) (*Models.TimeLog, error) {
	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session Models.TimeLog
		err := tx.Where("id = ? AND employee_id = ? AND end_time IS NULL", sessionID, employeeID).First(&session).Error
		if err != nil {
			if Models.IsNotFound(err) {
				return AppErrors.NotFound("Active time log not found")
			}
			return AppErrors.Internal(err, "Failed to retrieve time log")
		}

		session.Close(t.now())
		result := tx.Model(&Models.TimeLog{}).
			Where("id = ? AND end_time IS NULL", session.ID).
			Updates(map[string]interface{}{
				"end_time":  *session.EndTime,
				"duration":  *session.Duration,
				"notes":     appendNotes(session.Notes, notes),
				"open_slot": nil,
			})
		if result.Error != nil {
			return AppErrors.Internal(result.Error, "Failed to stop time tracking")
		}
		if result.RowsAffected == 0 {
			return AppErrors.NotFound("Active time log not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.Get(ctx, sessionID)
}

func (t *Tracker) Current(ctx context.Context, employeeID string) (*Status, error) {
	open, err := openSessionOf(t.DB.WithContext(ctx).Preload("Task").Preload("Project"), employeeID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return &Status{Active: false}, nil
	}
	return &Status{
		Active:          true,
		TimeLog:         open,
		CurrentDuration: Models.DurationSeconds(open.StartTime, t.now()),
	}, nil
}

// AdminEdit overrides a session's bounds or notes. When both bounds are set
// afterwards the duration is recomputed; an end before the start is rejected.
func (t *Tracker) AdminEdit(ctx context.Context, sessionID string, input EditInput) (*Models.TimeLog, error) {
	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session Models.TimeLog
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if Models.IsNotFound(err) {
				return AppErrors.NotFound("Time log not found")
			}
			return AppErrors.Internal(err, "Failed to retrieve time log")
		}

		changes := map[string]interface{}{}
		if input.StartTime != nil {
			session.StartTime = input.StartTime.UTC()
			changes["start_time"] = session.StartTime
		}
		if input.EndTime != nil {
			end := input.EndTime.UTC()
			session.EndTime = &end
			changes["end_time"] = end
			changes["open_slot"] = nil
		}
		if input.Notes != nil {
			changes["notes"] = *input.Notes
		}
		if session.EndTime != nil {
			if session.EndTime.Before(session.StartTime) {
				return AppErrors.Validation("endTime must not be before startTime")
			}
			changes["duration"] = Models.DurationSeconds(session.StartTime, *session.EndTime)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&session).Updates(changes).Error; err != nil {
			return AppErrors.Internal(err, "Failed to update time log")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.Get(ctx, sessionID)
}

// Delete removes a session together with its screenshots.
func (t *Tracker) Delete(ctx context.Context, sessionID string) error {
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("time_log_id = ?", sessionID).Delete(&Models.Screenshot{}).Error; err != nil {
			return AppErrors.Internal(err, "Failed to delete screenshots")
		}
		result := tx.Where("id = ?", sessionID).Delete(&Models.TimeLog{})
		if result.Error != nil {
			return AppErrors.Internal(result.Error, "Failed to delete time log")
		}
		if result.RowsAffected == 0 {
			return AppErrors.NotFound("Time log not found")
		}
		return nil
	})
}

func (t *Tracker) Get(ctx context.Context, sessionID string) (*Models.TimeLog, error) {
	var session Models.TimeLog
	err := t.DB.WithContext(ctx).Preload("Task").Preload("Project").First(&session, "id = ?", sessionID).Error
	if err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.NotFound("Time log not found")
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve time log")
	}
	return &session, nil
}

// openSessionOf returns nil without error when the employee is idle.
func openSessionOf(db *gorm.DB, employeeID string) (*Models.TimeLog, error) {
	var session Models.TimeLog
	err := db.Where("employee_id = ? AND end_time IS NULL", employeeID).First(&session).Error
	if err != nil {
		if Models.IsNotFound(err) {
			return nil, nil
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve active time log")
	}
	return &session, nil
}

func alreadyTracking(open *Models.TimeLog) error {
	return AppErrors.Conflict("You already have an active time tracking session").With("activeTimeLog", open)
}

func appendNotes(existing, notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return existing
	}
	if existing == "" {
		return notes
	}
	return existing + "\n" + notes
}
