package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"Chronos/Identity"

	"github.com/gofiber/fiber/v2"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	// Enable console logging
	Console bool
	// Enable file logging
	File bool
	// Log file path
	LogFilePath string
	// Requests answered with status >= 400 are also written here when set
	ErrorFilePath string
	// Log format: "json" or "text"
	Format string
	// Include request body in logs
	IncludeBody bool
	// Skip logging for paths with these prefixes
	SkipPaths []string
}

// LogData is one line of the request log.
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"userAgent"`
	RequestID     string        `json:"requestId"`
	RequestBody   interface{}   `json:"requestBody,omitempty"`
	Error         string        `json:"error,omitempty"`
	EmployeeID    string        `json:"employeeId,omitempty"`
	EmployeeName  string        `json:"employeeName,omitempty"`
	ContentLength int64         `json:"contentLength"`
}

// DefaultLogConfig returns a default configuration for the logging middleware
func DefaultLogConfig(logDir string) LogConfig {
	return LogConfig{
		Console:       true,
		File:          true,
		LogFilePath:   filepath.Join(logDir, "requests.log"),
		ErrorFilePath: filepath.Join(logDir, "errors.log"),
		Format:        "json",
		SkipPaths:     []string{"/health", "/uploads"},
	}
}

var fileMu sync.Mutex

// LoggingMiddleware logs every request after it has been answered. Errors
// returned by handlers are rendered here through the app's ErrorHandler so
// the logged status is the one sent.
func LoggingMiddleware(cfg LogConfig) fiber.Handler {
	if cfg.File {
		for _, path := range []string{cfg.LogFilePath, cfg.ErrorFilePath} {
			if path == "" {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				log.Printf("Error creating logs directory: %v\n", err)
			}
		}
	}

	return func(c *fiber.Ctx) error {
		for _, skipPath := range cfg.SkipPaths {
			if strings.HasPrefix(c.Path(), skipPath) {
				return c.Next()
			}
		}

		start := time.Now()

		var requestBody interface{}
		if cfg.IncludeBody && c.Method() != fiber.MethodGet && !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			if body := c.Body(); len(body) > 0 {
				var jsonData map[string]interface{}
				if err := json.Unmarshal(body, &jsonData); err == nil {
					redact(jsonData)
					requestBody = jsonData
				}
			}
		}

		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		data := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			RequestID:     c.GetRespHeader(fiber.HeaderXRequestID),
			RequestBody:   requestBody,
			ContentLength: int64(len(c.Response().Body())),
		}
		if caller, ok := c.Locals(CallerKey).(*Identity.Caller); ok && caller != nil {
			data.EmployeeID = caller.EmployeeID
			data.EmployeeName = caller.Employee.FullName()
		}
		if chainErr != nil {
			data.Error = chainErr.Error()
		}

		logRequest(cfg, data)
		return nil
	}
}

// RequestLogger is the logging middleware the server mounts.
func RequestLogger(logDir string) fiber.Handler {
	return LoggingMiddleware(DefaultLogConfig(logDir))
}

func redact(body map[string]interface{}) {
	for key := range body {
		if strings.Contains(strings.ToLower(key), "password") {
			body[key] = "[redacted]"
		}
	}
}

func logRequest(cfg LogConfig, data LogData) {
	var logMessage string
	switch cfg.Format {
	case "json":
		jsonData, _ := json.Marshal(data)
		logMessage = string(jsonData)
	default:
		logMessage = formatTextLog(data)
	}

	if cfg.Console {
		log.Println(formatTextLog(data))
	}

	if cfg.File {
		logToFile(cfg.LogFilePath, logMessage)
		if cfg.ErrorFilePath != "" && data.Status >= fiber.StatusBadRequest {
			logToFile(cfg.ErrorFilePath, logMessage)
		}
	}
}

// formatTextLog formats the log data as human-readable text
func formatTextLog(data LogData) string {
	employee := ""
	if data.EmployeeID != "" {
		employee = fmt.Sprintf(" employee:%s", data.EmployeeID)
	}

	return fmt.Sprintf(
		"[%s] %s %s %s %d %s %s %s%s",
		data.Timestamp.Format("2006-01-02 15:04:05"),
		data.Method,
		data.Path,
		getStatusColor(data.Status),
		data.Status,
		getLatencyColor(data.Latency),
		data.Latency,
		data.IP,
		employee,
	)
}

func getStatusColor(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "✅"
	case status >= 300 && status < 400:
		return "🔄"
	case status >= 400 && status < 500:
		return "⚠️"
	case status >= 500:
		return "❌"
	default:
		return "❓"
	}
}

func getLatencyColor(latency time.Duration) string {
	switch {
	case latency < 100*time.Millisecond:
		return "🟢"
	case latency < 500*time.Millisecond:
		return "🟡"
	case latency < 1*time.Second:
		return "🟠"
	default:
		return "🔴"
	}
}

// logToFile appends one line to filePath.
func logToFile(filePath, message string) {
	fileMu.Lock()
	defer fileMu.Unlock()

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if len(message) > 0 && message[len(message)-1] != '\n' {
		message += "\n"
	}

	if _, err = file.WriteString(message); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}
