// Package Reports aggregates recorded sessions. It never writes.
package Reports

import (
	"context"
	"fmt"
	"time"

	"Chronos/AppErrors"
	"Chronos/Models"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// Default windows when a query gives no dates.
var (
	SelfServiceWindow = Models.Window{Days: 0}
	ManagerWindow     = Models.Window{Days: 30}
)

type Filter struct {
	EmployeeID string
	ProjectID  string
	Start      *time.Time
	End        *time.Time
}

// Report lists sessions newest first. TotalDuration sums closed sessions
// only; open sessions count as zero.
type Report struct {
	TimeLogs      []Models.TimeLog `json:"timeLogs"`
	TotalDuration int64            `json:"totalDuration"`
	StartDate     time.Time        `json:"startDate"`
	EndDate       time.Time        `json:"endDate"`
}

type EmployeeTotal struct {
	EmployeeID    string `json:"employeeId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Sessions      int64  `json:"sessions"`
	TotalDuration int64  `json:"totalDuration"`
}

type View struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewView(db *gorm.DB) *View {
	return &View{DB: db}
}

func (v *View) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

// MyLogs is the self-service report of one employee's sessions.
func (v *View) MyLogs(ctx context.Context, employeeID string, start, end *time.Time) (*Report, error) {
	return v.ListSessions(ctx, Filter{EmployeeID: employeeID, Start: start, End: end}, SelfServiceWindow)
}

// AllLogs is the cross-employee report used by managers.
func (v *View) AllLogs(ctx context.Context, filter Filter) (*Report, error) {
	return v.ListSessions(ctx, filter, ManagerWindow)
}

func (v *View) ListSessions(ctx context.Context, filter Filter, window Models.Window) (*Report, error) {
	start, end, err := window.Resolve(filter.Start, filter.End, v.now())
	if err != nil {
		return nil, err
	}

	query := v.DB.WithContext(ctx).
		Preload("Employee").
		Preload("Task").
		Preload("Project").
		Where("start_time BETWEEN ? AND ?", start, end)
	if filter.EmployeeID != "" {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}

	logs := []Models.TimeLog{}
	if err := query.Order("start_time DESC").Find(&logs).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve time logs")
	}
	return &Report{
		TimeLogs:      logs,
		TotalDuration: TotalDuration(logs),
		StartDate:     start,
		EndDate:       end,
	}, nil
}

// TotalDuration sums the durations of closed sessions.
func TotalDuration(logs []Models.TimeLog) int64 {
	var total int64
	for _, l := range logs {
		if l.Duration != nil {
			total += *l.Duration
		}
	}
	return total
}

// SummarizeByEmployee totals closed durations per employee for sessions
// started in [start, end], largest total first.
func (v *View) SummarizeByEmployee(ctx context.Context, start, end time.Time) ([]EmployeeTotal, error) {
	db := v.DB.WithContext(ctx)
	var rows []struct {
		EmployeeID string
		Sessions   int64
		Total      int64
	}
	err := db.Model(&Models.TimeLog{}).
		Select("employee_id, COUNT(*) AS sessions, COALESCE(SUM(duration), 0) AS total").
		Where("start_time BETWEEN ? AND ? AND duration IS NOT NULL", start.UTC(), end.UTC()).
		Group("employee_id").
		Scan(&rows).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to summarize time logs")
	}

	totals := make([]EmployeeTotal, 0, len(rows))
	if len(rows) == 0 {
		return totals, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EmployeeID)
	}
	var employees []Models.Employee
	if err := db.Where("id IN ?", ids).Find(&employees).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve employees")
	}
	byID := make(map[string]Models.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	for _, r := range rows {
		e := byID[r.EmployeeID]
		totals = append(totals, EmployeeTotal{
			EmployeeID:    r.EmployeeID,
			Name:          e.FullName(),
			Email:         e.Email,
			Sessions:      r.Sessions,
			TotalDuration: r.Total,
		})
	}
	slices.SortFunc(totals, func(a, b EmployeeTotal) int {
		if a.TotalDuration != b.TotalDuration {
			if a.TotalDuration > b.TotalDuration {
				return -1
			}
			return 1
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return totals, nil
}

// FormatDuration renders seconds as h:mm:ss.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
