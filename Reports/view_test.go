package Reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"Chronos/AppErrors"
	"Chronos/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	view   *View
	now    time.Time
	alice  Models.Employee
	bob    Models.Employee
	alpha  Models.Project
	beta   Models.Project
	alphaT Models.Task
	betaT  Models.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := Models.OpenInMemory()
	require.NoError(t, err)
	f := &fixture{db: db, now: time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)}
	f.view = NewView(db)
	f.view.Now = func() time.Time { return f.now }

	f.alice = Models.Employee{Email: "alice@example.com", PasswordHash: "x", FirstName: "Alice", LastName: "A", IsActive: true, IsVerified: true, Permission: 1}
	f.bob = Models.Employee{Email: "bob@example.com", PasswordHash: "x", FirstName: "Bob", LastName: "B", IsActive: true, IsVerified: true, Permission: 1}
	require.NoError(t, db.Create(&f.alice).Error)
	require.NoError(t, db.Create(&f.bob).Error)

	f.alpha = Models.Project{Name: "Alpha", IsActive: true}
	f.beta = Models.Project{Name: "Beta", IsActive: true}
	require.NoError(t, db.Create(&f.alpha).Error)
	require.NoError(t, db.Create(&f.beta).Error)
	f.alphaT = Models.NewDefaultTask(f.alpha.ID)
	f.betaT = Models.NewDefaultTask(f.beta.ID)
	require.NoError(t, db.Create(&f.alphaT).Error)
	require.NoError(t, db.Create(&f.betaT).Error)
	return f
}

func (f *fixture) addClosed(t *testing.T, employee Models.Employee, task Models.Task, start time.Time, seconds int64) {
	t.Helper()
	end := start.Add(time.Duration(seconds) * time.Second)
	log := Models.TimeLog{EmployeeID: employee.ID, TaskID: task.ID, ProjectID: task.ProjectID, StartTime: start, EndTime: &end, Duration: &seconds}
	require.NoError(t, f.db.Create(&log).Error)
}

func (f *fixture) addOpen(t *testing.T, employee Models.Employee, task Models.Task, start time.Time) {
	t.Helper()
	log := Models.TimeLog{EmployeeID: employee.ID, TaskID: task.ID, ProjectID: task.ProjectID, StartTime: start}
	require.NoError(t, f.db.Create(&log).Error)
}

func TestMyLogsDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	today := Models.StartOfDay(f.now)

	f.addClosed(t, f.alice, f.alphaT, today.Add(8*time.Hour), 3600)
	f.addClosed(t, f.alice, f.alphaT, today.Add(-2*time.Hour), 600)
	f.addOpen(t, f.alice, f.alphaT, today.Add(14*time.Hour))
	f.addClosed(t, f.bob, f.alphaT, today.Add(9*time.Hour), 1200)

	report, err := f.view.MyLogs(ctx, f.alice.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, report.TimeLogs, 2)
	assert.Equal(t, int64(3600), report.TotalDuration)
	assert.True(t, report.TimeLogs[0].StartTime.After(report.TimeLogs[1].StartTime))
	assert.True(t, report.StartDate.Equal(today))
	assert.True(t, report.EndDate.Equal(Models.EndOfDay(f.now)))
	require.NotNil(t, report.TimeLogs[1].Task)
	assert.Equal(t, Models.DefaultTaskName, report.TimeLogs[1].Task.Name)
}

func TestAllLogsFiltersAndDefaultsTo30Days(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addClosed(t, f.alice, f.alphaT, f.now.AddDate(0, 0, -10), 100)
	f.addClosed(t, f.bob, f.betaT, f.now.AddDate(0, 0, -5), 200)
	f.addClosed(t, f.bob, f.alphaT, f.now.AddDate(0, 0, -40), 400)

	report, err := f.view.AllLogs(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, report.TimeLogs, 2)
	assert.Equal(t, int64(300), report.TotalDuration)

	report, err = f.view.AllLogs(ctx, Filter{EmployeeID: f.bob.ID})
	require.NoError(t, err)
	require.Len(t, report.TimeLogs, 1)
	assert.Equal(t, int64(200), report.TotalDuration)

	start := f.now.AddDate(0, 0, -60)
	report, err = f.view.AllLogs(ctx, Filter{ProjectID: f.alpha.ID, Start: &start})
	require.NoError(t, err)
	assert.Len(t, report.TimeLogs, 2)
	assert.Equal(t, int64(500), report.TotalDuration)
	require.NotNil(t, report.TimeLogs[0].Employee)

	end := start.Add(-time.Hour)
	_, err = f.view.AllLogs(ctx, Filter{Start: &start, End: &end})
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))
}

func TestSummarizeByEmployee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := Models.StartOfDay(f.now)

	f.addClosed(t, f.alice, f.alphaT, day.Add(time.Hour), 100)
	f.addClosed(t, f.bob, f.alphaT, day.Add(2*time.Hour), 300)
	f.addClosed(t, f.bob, f.betaT, day.Add(5*time.Hour), 50)
	f.addOpen(t, f.alice, f.betaT, day.Add(6*time.Hour))

	totals, err := f.view.SummarizeByEmployee(ctx, day, Models.EndOfDay(day))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, f.bob.ID, totals[0].EmployeeID)
	assert.Equal(t, int64(350), totals[0].TotalDuration)
	assert.Equal(t, int64(2), totals[0].Sessions)
	assert.Equal(t, "Bob B", totals[0].Name)
	assert.Equal(t, int64(100), totals[1].TotalDuration)
	assert.Equal(t, int64(1), totals[1].Sessions)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00:00", FormatDuration(0))
	assert.Equal(t, "1:02:03", FormatDuration(3723))
	assert.Equal(t, "0:00:00", FormatDuration(-5))
}

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addClosed(t, f.alice, f.alphaT, Models.StartOfDay(f.now).Add(time.Hour), 3723)

	report, err := f.view.MyLogs(ctx, f.alice.ID, nil, nil)
	require.NoError(t, err)
	buf, err := ExportXLSX(report)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders[0], rows[0][0])
	assert.Equal(t, "Alice A", rows[1][0])
	assert.Equal(t, "Alpha", rows[1][2])
	assert.Equal(t, "1:02:03", rows[1][7])
	assert.Equal(t, "Total", rows[2][5])
}
