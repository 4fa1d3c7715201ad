package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"Chronos/AppErrors"
	"Chronos/Models"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slices"
)

// LogController serves the request log written by middleware.LoggingMiddleware.
type LogController struct {
	Path string
	Now  func() time.Time
}

func NewLogController(path string) *LogController {
	return &LogController{Path: path}
}

// LogGroup represents a group of logs by path
type LogGroup struct {
	Path        string              `json:"path"`
	Method      string              `json:"method"`
	Count       int                 `json:"count"`
	AvgLatency  float64             `json:"avgLatencyMs"`
	MinLatency  float64             `json:"minLatencyMs"`
	MaxLatency  float64             `json:"maxLatencyMs"`
	SuccessRate float64             `json:"successRate"`
	Logs        []middleware.LogData `json:"logs"`
}

type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"totalLogs"`
	TotalGroups int        `json:"totalGroups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"pageSize"`
	TotalPages  int        `json:"totalPages"`
	DateFrom    time.Time  `json:"dateFrom"`
	DateTo      time.Time  `json:"dateTo"`
}

func (l *LogController) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

// dateRange reads dateFrom/dateTo (YYYY-MM-DD). Both missing means today.
func (l *LogController) dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := parseTime(c.Query("dateFrom"), false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTime(c.Query("dateTo"), true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	now := l.now()
	if from == nil && to == nil {
		return Models.StartOfDay(now), Models.EndOfDay(now), nil
	}
	start, end := time.Unix(0, 0).UTC(), now
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	return start, end, nil
}

func pagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}
	return page, pageSize
}

func pageBounds(total, page, pageSize int) (int, int, int) {
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end, totalPages
}

// GetLogs retrieves logs with pagination, date filtering, and grouping
func (l *LogController) GetLogs(c *fiber.Ctx) error {
	dateFrom, dateTo, err := l.dateRange(c)
	if err != nil {
		return err
	}
	page, pageSize := pagination(c)

	logs, err := l.read(dateFrom, dateTo)
	if err != nil {
		return err
	}
	groups := groupLogsByPath(filterLogs(logs, c.Query("path"), c.Query("method"), c.Query("status")))

	start, end, totalPages := pageBounds(len(groups), page, pageSize)
	totalLogs := 0
	for _, group := range groups {
		totalLogs += group.Count
	}

	return c.JSON(LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   totalLogs,
		TotalGroups: len(groups),
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	})
}

// GetLogsByPath lists the entries whose path contains the :path parameter,
// newest first.
func (l *LogController) GetLogsByPath(c *fiber.Ctx) error {
	path := c.Params("path")
	dateFrom, dateTo, err := l.dateRange(c)
	if err != nil {
		return err
	}
	page, pageSize := pagination(c)

	logs, err := l.read(dateFrom, dateTo)
	if err != nil {
		return err
	}
	pathLogs := filterLogs(logs, path, "", "")
	slices.SortFunc(pathLogs, func(a, b middleware.LogData) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	start, end, totalPages := pageBounds(len(pathLogs), page, pageSize)
	return c.JSON(fiber.Map{
		"logs":       pathLogs[start:end],
		"totalLogs":  len(pathLogs),
		"page":       page,
		"pageSize":   pageSize,
		"totalPages": totalPages,
		"path":       path,
		"dateFrom":   dateFrom,
		"dateTo":     dateTo,
	})
}

// GetLogStats returns statistics about logs
func (l *LogController) GetLogStats(c *fiber.Ctx) error {
	dateFrom, dateTo, err := l.dateRange(c)
	if err != nil {
		return err
	}
	logs, err := l.read(dateFrom, dateTo)
	if err != nil {
		return err
	}

	var successful, failed int
	var totalLatency, minLatency, maxLatency time.Duration
	methodStats := make(map[string]int)
	statusStats := make(map[int]int)
	pathStats := make(map[string]int)

	for i, entry := range logs {
		if entry.Status >= 200 && entry.Status < 300 {
			successful++
		} else if entry.Status >= 400 {
			failed++
		}
		totalLatency += entry.Latency
		if i == 0 || entry.Latency < minLatency {
			minLatency = entry.Latency
		}
		if entry.Latency > maxLatency {
			maxLatency = entry.Latency
		}
		methodStats[entry.Method]++
		statusStats[entry.Status]++
		pathStats[entry.Path]++
	}

	var avgLatency time.Duration
	successRate := 0.0
	if len(logs) > 0 {
		avgLatency = totalLatency / time.Duration(len(logs))
		successRate = float64(successful) / float64(len(logs)) * 100
	}

	type pathCount struct {
		Path  string `json:"path"`
		Count int    `json:"count"`
	}
	topPaths := make([]pathCount, 0, len(pathStats))
	for path, count := range pathStats {
		topPaths = append(topPaths, pathCount{Path: path, Count: count})
	}
	slices.SortFunc(topPaths, func(a, b pathCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Path, b.Path)
	})
	if len(topPaths) > 10 {
		topPaths = topPaths[:10]
	}

	return c.JSON(fiber.Map{
		"totalRequests":      len(logs),
		"successfulRequests": successful,
		"errorRequests":      failed,
		"successRate":        successRate,
		"avgLatencyMs":       milliseconds(avgLatency),
		"minLatencyMs":       milliseconds(minLatency),
		"maxLatencyMs":       milliseconds(maxLatency),
		"methodStats":        methodStats,
		"statusStats":        statusStats,
		"topPaths":           topPaths,
		"dateFrom":           dateFrom,
		"dateTo":             dateTo,
	})
}

// read returns the entries in [dateFrom, dateTo]. A missing log file is an
// empty log.
func (l *LogController) read(dateFrom, dateTo time.Time) ([]middleware.LogData, error) {
	file, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []middleware.LogData{}, nil
		}
		return nil, AppErrors.Internal(err, "Failed to read logs")
	}
	defer file.Close()

	logs := []middleware.LogData{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Timestamp.Before(dateFrom) || entry.Timestamp.After(dateTo) {
			continue
		}
		logs = append(logs, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, AppErrors.Internal(err, "Failed to read logs")
	}
	return logs, nil
}

func filterLogs(logs []middleware.LogData, pathFilter, methodFilter, statusFilter string) []middleware.LogData {
	status, statusErr := strconv.Atoi(statusFilter)
	filtered := []middleware.LogData{}
	for _, entry := range logs {
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(pathFilter)) {
			continue
		}
		if methodFilter != "" && !strings.EqualFold(entry.Method, methodFilter) {
			continue
		}
		if statusFilter != "" && statusErr == nil && entry.Status != status {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// groupLogsByPath groups by method and path, busiest first.
func groupLogsByPath(logs []middleware.LogData) []LogGroup {
	groupMap := make(map[string]*LogGroup)
	successes := make(map[string]int)
	latencies := make(map[string]time.Duration)

	for _, entry := range logs {
		key := fmt.Sprintf("%s %s", entry.Method, entry.Path)
		latency := milliseconds(entry.Latency)

		group, exists := groupMap[key]
		if !exists {
			group = &LogGroup{Path: entry.Path, Method: entry.Method, MinLatency: latency, MaxLatency: latency}
			groupMap[key] = group
		}
		group.Count++
		group.Logs = append(group.Logs, entry)
		if latency < group.MinLatency {
			group.MinLatency = latency
		}
		if latency > group.MaxLatency {
			group.MaxLatency = latency
		}
		latencies[key] += entry.Latency
		if entry.Status >= 200 && entry.Status < 300 {
			successes[key]++
		}
	}

	groups := make([]LogGroup, 0, len(groupMap))
	for key, group := range groupMap {
		group.AvgLatency = milliseconds(latencies[key] / time.Duration(group.Count))
		group.SuccessRate = float64(successes[key]) / float64(group.Count)
		groups = append(groups, *group)
	}
	slices.SortFunc(groups, func(a, b LogGroup) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Method+" "+a.Path, b.Method+" "+b.Path)
	})
	return groups
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
