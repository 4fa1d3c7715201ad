package Reports

import (
	"bytes"
	"fmt"

	"Chronos/Models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Time Logs"

var exportHeaders = []string{
	"Employee", "Email", "Project", "Task", "Start", "End", "Duration (s)", "Duration", "Notes",
}

// ExportXLSX writes the report as a single-sheet workbook with a total row.
func ExportXLSX(report *Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(exportSheet); err == nil {
		f.SetActiveSheet(index)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, header)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err == nil {
		f.SetRowStyle(exportSheet, 1, 1, headerStyle)
	}

	for rowIndex, l := range report.TimeLogs {
		row := rowIndex + 2
		if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &[]interface{}{
			employeeName(l.Employee),
			employeeEmail(l.Employee),
			projectName(l.Project),
			taskName(l.Task),
			l.StartTime.Format("2006-01-02 15:04:05"),
			endTime(l),
			durationSeconds(l),
			durationText(l),
			l.Notes,
		}); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", row, err)
		}
	}

	totalRow := len(report.TimeLogs) + 2
	f.SetCellValue(exportSheet, fmt.Sprintf("F%d", totalRow), "Total")
	f.SetCellValue(exportSheet, fmt.Sprintf("G%d", totalRow), report.TotalDuration)
	f.SetCellValue(exportSheet, fmt.Sprintf("H%d", totalRow), FormatDuration(report.TotalDuration))

	f.SetColWidth(exportSheet, "A", "H", 18)
	f.SetColWidth(exportSheet, "I", "I", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return &buf, nil
}

func employeeName(e *Models.Employee) string {
	if e == nil {
		return ""
	}
	return e.FullName()
}

func employeeEmail(e *Models.Employee) string {
	if e == nil {
		return ""
	}
	return e.Email
}

func projectName(p *Models.Project) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func taskName(t *Models.Task) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func endTime(l Models.TimeLog) string {
	if l.EndTime == nil {
		return "running"
	}
	return l.EndTime.Format("2006-01-02 15:04:05")
}

func durationSeconds(l Models.TimeLog) interface{} {
	if l.Duration == nil {
		return ""
	}
	return *l.Duration
}

func durationText(l Models.TimeLog) string {
	if l.Duration == nil {
		return ""
	}
	return FormatDuration(*l.Duration)
}
