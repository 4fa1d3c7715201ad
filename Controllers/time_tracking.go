package Controllers

import (
	"fmt"
	"time"

	"Chronos/Reports"
	"Chronos/Sessions"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
)

type TimeTrackingController struct {
	Tracker *Sessions.Tracker
	Reports *Reports.View
}

func NewTimeTrackingController(tracker *Sessions.Tracker, reports *Reports.View) *TimeTrackingController {
	return &TimeTrackingController{Tracker: tracker, Reports: reports}
}

type startRequest struct {
	TaskID     string `json:"taskId" validate:"required"`
	Notes      string `json:"notes"`
	MacAddress string `json:"macAddress"`
}

type stopRequest struct {
	Notes string `json:"notes"`
}

type editRequest struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Notes     *string    `json:"notes"`
}

func (t *TimeTrackingController) StartTracking(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	var req startRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	timeLog, err := t.Tracker.Start(c.UserContext(), caller.EmployeeID, req.TaskID, Sessions.StartOptions{
		Notes:      req.Notes,
		IPAddress:  c.IP(),
		MacAddress: req.MacAddress,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Time tracking started",
		"timeLog": timeLog,
	})
}

func (t *TimeTrackingController) StopTracking(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	var req stopRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	timeLog, err := t.Tracker.Stop(c.UserContext(), c.Params("sessionId"), caller.EmployeeID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Time tracking stopped",
		"timeLog": timeLog,
	})
}

func (t *TimeTrackingController) GetCurrent(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	status, err := t.Tracker.Current(c.UserContext(), caller.EmployeeID)
	if err != nil {
		return err
	}
	if !status.Active {
		return c.JSON(fiber.Map{"active": false})
	}

	timeLog := fiber.Map{
		"id":              status.TimeLog.ID,
		"startTime":       status.TimeLog.StartTime,
		"notes":           status.TimeLog.Notes,
		"currentDuration": status.CurrentDuration,
	}
	if task := status.TimeLog.Task; task != nil {
		timeLog["task"] = fiber.Map{"id": task.ID, "name": task.Name}
	}
	if project := status.TimeLog.Project; project != nil {
		timeLog["project"] = fiber.Map{"id": project.ID, "name": project.Name}
	}
	return c.JSON(fiber.Map{
		"active":  true,
		"timeLog": timeLog,
	})
}

// GetMyLogs lists the caller's sessions, today by default.
func (t *TimeTrackingController) GetMyLogs(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	start, end, err := queryRange(c)
	if err != nil {
		return err
	}
	report, err := t.Reports.MyLogs(c.UserContext(), caller.EmployeeID, start, end)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (t *TimeTrackingController) allLogs(c *fiber.Ctx) (*Reports.Report, error) {
	start, end, err := queryRange(c)
	if err != nil {
		return nil, err
	}
	return t.Reports.AllLogs(c.UserContext(), Reports.Filter{
		EmployeeID: c.Query("employeeId"),
		ProjectID:  c.Query("projectId"),
		Start:      start,
		End:        end,
	})
}

// GetAllLogs is the manager report, the last 30 days by default.
func (t *TimeTrackingController) GetAllLogs(c *fiber.Ctx) error {
	report, err := t.allLogs(c)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (t *TimeTrackingController) ExportAllLogs(c *fiber.Ctx) error {
	report, err := t.allLogs(c)
	if err != nil {
		return err
	}
	buf, err := Reports.ExportXLSX(report)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("time-logs_%s_%s.xlsx", report.StartDate.Format(dateLayout), report.EndDate.Format(dateLayout))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

func (t *TimeTrackingController) UpdateTimeLog(c *fiber.Ctx) error {
	var req editRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	timeLog, err := t.Tracker.AdminEdit(c.UserContext(), c.Params("id"), Sessions.EditInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Time log updated successfully",
		"timeLog": timeLog,
	})
}

func (t *TimeTrackingController) DeleteTimeLog(c *fiber.Ctx) error {
	if err := t.Tracker.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(message("Time log deleted successfully"))
}
