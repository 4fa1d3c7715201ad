package CronJobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"Chronos/Reports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct {
	start, end time.Time
	totals     []Reports.EmployeeTotal
	err        error
}

func (s *stubSummarizer) SummarizeByEmployee(_ context.Context, start, end time.Time) ([]Reports.EmployeeTotal, error) {
	s.start, s.end = start, end
	return s.totals, s.err
}

type stubPoster struct {
	day   time.Time
	calls int
	err   error
}

func (p *stubPoster) PostDigest(_ context.Context, day time.Time, _ []Reports.EmployeeTotal) error {
	p.day = day
	p.calls++
	return p.err
}

type stubMailer struct {
	to    []string
	calls int
}

func (m *stubMailer) SendDigest(_ context.Context, to []string, _ time.Time, _ []Reports.EmployeeTotal) error {
	m.to = to
	m.calls++
	return nil
}

func newDigest(summary *stubSummarizer, poster *stubPoster, mailer *stubMailer) *DailyDigest {
	d := NewDailyDigest("", summary, poster, mailer)
	d.Now = func() time.Time { return time.Date(2024, 3, 5, 7, 0, 0, 0, time.UTC) }
	d.Recipients = func(context.Context) ([]string, error) { return []string{"boss@example.com"}, nil }
	return d
}

func TestRunNowSummarizesYesterday(t *testing.T) {
	summary := &stubSummarizer{totals: []Reports.EmployeeTotal{{Name: "Ada", TotalDuration: 60}}}
	poster := &stubPoster{}
	mailer := &stubMailer{}

	require.NoError(t, newDigest(summary, poster, mailer).RunNow(context.Background()))

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), summary.start)
	assert.Equal(t, 2024, summary.end.Year())
	assert.Equal(t, time.Month(3), summary.end.Month())
	assert.Equal(t, 4, summary.end.Day())
	assert.Equal(t, 23, summary.end.Hour())
	assert.Equal(t, summary.start, poster.day)
	assert.Equal(t, 1, poster.calls)
	assert.Equal(t, []string{"boss@example.com"}, mailer.to)
}

func TestRunNowStopsOnSummaryError(t *testing.T) {
	summary := &stubSummarizer{err: errors.New("db down")}
	poster := &stubPoster{}
	mailer := &stubMailer{}

	err := newDigest(summary, poster, mailer).RunNow(context.Background())
	require.Error(t, err)
	assert.Zero(t, poster.calls)
	assert.Zero(t, mailer.calls)
}

func TestRunNowStillMailsWhenSlackFails(t *testing.T) {
	poster := &stubPoster{err: errors.New("webhook 500")}
	mailer := &stubMailer{}

	err := newDigest(&stubSummarizer{}, poster, mailer).RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, mailer.calls)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	d := NewDailyDigest("not a schedule", &stubSummarizer{}, nil, nil)
	assert.Error(t, d.Start())
}

func TestStartSchedulesNextRun(t *testing.T) {
	d := NewDailyDigest("", &stubSummarizer{}, nil, nil)
	require.NoError(t, d.Start())
	defer d.Stop()

	next := d.NextRun()
	assert.False(t, next.IsZero())
	assert.Equal(t, 7, next.UTC().Hour())
}
