package Controllers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"Chronos/AppErrors"
	"Chronos/Identity"
	"Chronos/Screenshots"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
)

type ScreenshotController struct {
	Store     *Screenshots.Store
	Directory *Identity.Directory
}

func NewScreenshotController(store *Screenshots.Store, directory *Identity.Directory) *ScreenshotController {
	return &ScreenshotController{Store: store, Directory: directory}
}

// recordScreenshotRequest names the session sessionId; timeLogId is still
// read for older desktop clients.
type recordScreenshotRequest struct {
	SessionID     string                 `json:"sessionId"`
	TimeLogID     string                 `json:"timeLogId"`
	ImageURL      string                 `json:"imageUrl" validate:"required"`
	ThumbnailURL  string                 `json:"thumbnailUrl"`
	Timestamp     *time.Time             `json:"timestamp"`
	HasPermission *bool                  `json:"hasPermission"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// sessionID returns the first non-empty of the given ids.
func sessionID(ids ...string) (string, error) {
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			return id, nil
		}
	}
	return "", AppErrors.Validation("sessionId is required").
		With("errors", map[string]string{"sessionId": "sessionId is a required field"})
}

func (s *ScreenshotController) now() time.Time {
	if s.Store.Now != nil {
		return s.Store.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ScreenshotController) created(c *fiber.Ctx, screenshot interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Screenshot stored successfully",
		"screenshot": screenshot,
	})
}

func (s *ScreenshotController) StoreScreenshot(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	var req recordScreenshotRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := sessionID(req.SessionID, req.TimeLogID)
	if err != nil {
		return err
	}
	screenshot, err := s.Store.Record(c.UserContext(), Screenshots.RecordInput{
		SessionID:     session,
		EmployeeID:    caller.EmployeeID,
		ImageURL:      req.ImageURL,
		ThumbnailURL:  req.ThumbnailURL,
		Timestamp:     req.Timestamp,
		HasPermission: req.HasPermission,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return err
	}
	return s.created(c, screenshot)
}

// UploadScreenshot takes a multipart form with the image in "screenshot"
// and sessionId (or timeLogId), timestamp, hasPermission and metadata as
// fields.
func (s *ScreenshotController) UploadScreenshot(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		return AppErrors.Validation("screenshot file is required")
	}
	if fileHeader.Size > Screenshots.MaxUploadBytes {
		return AppErrors.Validation("Screenshot exceeds %d MB", Screenshots.MaxUploadBytes>>20)
	}

	session, err := sessionID(c.FormValue("sessionId"), c.FormValue("timeLogId"))
	if err != nil {
		return err
	}
	input := Screenshots.RecordInput{
		SessionID:  session,
		EmployeeID: caller.EmployeeID,
	}
	if input.Timestamp, err = parseTime(c.FormValue("timestamp"), false); err != nil {
		return err
	}
	if value := c.FormValue("hasPermission"); value != "" {
		permitted, err := strconv.ParseBool(value)
		if err != nil {
			return AppErrors.Validation("hasPermission must be true or false")
		}
		input.HasPermission = &permitted
	}
	if value := c.FormValue("metadata"); value != "" {
		if err := json.Unmarshal([]byte(value), &input.Metadata); err != nil {
			return AppErrors.Validation("metadata must be a JSON object")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return AppErrors.Internal(err, "Failed to open upload")
	}
	defer file.Close()

	screenshot, err := s.Store.RecordUpload(c.UserContext(), input, fileHeader.Filename, file)
	if err != nil {
		return err
	}
	return s.created(c, screenshot)
}

// GetMyScreenshots lists the caller's screenshots, today by default.
func (s *ScreenshotController) GetMyScreenshots(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	start, end, err := queryRange(c)
	if err != nil {
		return err
	}
	from, to, err := Screenshots.SelfWindow.Resolve(start, end, s.now())
	if err != nil {
		return err
	}
	screenshots, err := s.Store.ListByEmployeeRange(c.UserContext(), caller.EmployeeID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"screenshots": screenshots,
		"startDate":   from,
		"endDate":     to,
	})
}

func (s *ScreenshotController) GetSessionScreenshots(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	screenshots, err := s.Store.ListBySession(c.UserContext(), c.Params("sessionId"), *caller)
	if err != nil {
		return err
	}
	return c.JSON(screenshots)
}

// GetEmployeeScreenshots lists one employee's screenshots, the last 7 days
// by default.
func (s *ScreenshotController) GetEmployeeScreenshots(c *fiber.Ctx) error {
	employee, err := s.Directory.Get(c.UserContext(), c.Params("employeeId"))
	if err != nil {
		return err
	}
	start, end, err := queryRange(c)
	if err != nil {
		return err
	}
	from, to, err := Screenshots.EmployeeWindow.Resolve(start, end, s.now())
	if err != nil {
		return err
	}
	screenshots, err := s.Store.ListByEmployeeRange(c.UserContext(), employee.ID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"employee":    employee.Summary(),
		"screenshots": screenshots,
		"startDate":   from,
		"endDate":     to,
	})
}

func (s *ScreenshotController) DeleteScreenshot(c *fiber.Ctx) error {
	if err := s.Store.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(message("Screenshot deleted successfully"))
}
