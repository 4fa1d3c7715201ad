package CronJobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"Chronos/Models"
	"Chronos/Reports"

	"github.com/robfig/cron/v3"
)

// DefaultDigestSchedule runs at 07:00:00 every day (seconds field first).
const DefaultDigestSchedule = "0 0 7 * * *"

type Summarizer interface {
	SummarizeByEmployee(ctx context.Context, start, end time.Time) ([]Reports.EmployeeTotal, error)
}

type DigestPoster interface {
	PostDigest(ctx context.Context, day time.Time, totals []Reports.EmployeeTotal) error
}

type DigestMailer interface {
	SendDigest(ctx context.Context, to []string, day time.Time, totals []Reports.EmployeeTotal) error
}

// DailyDigest summarizes the previous day's closed sessions per employee and
// sends the totals to Slack and by email.
type DailyDigest struct {
	cronScheduler *cron.Cron
	schedule      string
	jobID         cron.EntryID

	Reports    Summarizer
	Slack      DigestPoster
	Mailer     DigestMailer
	Recipients func(ctx context.Context) ([]string, error)
	Now        func() time.Time
	Timeout    time.Duration
}

func NewDailyDigest(schedule string, reports Summarizer, slack DigestPoster, mailer DigestMailer) *DailyDigest {
	if schedule == "" {
		schedule = DefaultDigestSchedule
	}
	return &DailyDigest{
		cronScheduler: cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		schedule:      schedule,
		Reports:       reports,
		Slack:         slack,
		Mailer:        mailer,
		Timeout:       time.Minute,
	}
}

func (d *DailyDigest) Start() error {
	var err error
	d.jobID, err = d.cronScheduler.AddFunc(d.schedule, func() {
		log.Println("Running scheduled daily digest")
		d.run()
	})
	if err != nil {
		return fmt.Errorf("error scheduling daily digest: %w", err)
	}

	d.cronScheduler.Start()
	log.Printf("Daily digest scheduler started (%s)", d.schedule)
	return nil
}

func (d *DailyDigest) Stop() {
	if d.cronScheduler != nil {
		<-d.cronScheduler.Stop().Done()
		log.Println("Daily digest scheduler stopped")
	}
}

// NextRun reports when the digest fires next; zero before Start.
func (d *DailyDigest) NextRun() time.Time {
	return d.cronScheduler.Entry(d.jobID).Next
}

func (d *DailyDigest) run() {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()
	if err := d.RunNow(ctx); err != nil {
		log.Printf("Error in daily digest: %v", err)
		return
	}
	log.Println("Successfully completed daily digest")
}

// RunNow sends the digest for the calendar day before now.
func (d *DailyDigest) RunNow(ctx context.Context) error {
	now := time.Now().UTC()
	if d.Now != nil {
		now = d.Now().UTC()
	}
	day := Models.StartOfDay(now).AddDate(0, 0, -1)

	totals, err := d.Reports.SummarizeByEmployee(ctx, day, Models.EndOfDay(day))
	if err != nil {
		return fmt.Errorf("error summarizing %s: %w", day.Format("2006-01-02"), err)
	}

	var failed error
	if d.Slack != nil {
		if err := d.Slack.PostDigest(ctx, day, totals); err != nil {
			log.Printf("Error posting digest to slack: %v", err)
			failed = err
		}
	}

	if d.Mailer != nil && d.Recipients != nil {
		to, err := d.Recipients(ctx)
		if err != nil {
			return fmt.Errorf("error loading digest recipients: %w", err)
		}
		if err := d.Mailer.SendDigest(ctx, to, day, totals); err != nil {
			log.Printf("Error emailing digest: %v", err)
			failed = err
		}
	}
	return failed
}
