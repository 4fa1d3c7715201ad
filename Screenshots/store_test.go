package Screenshots

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Chronos/AppErrors"
	"Chronos/Identity"
	"Chronos/Models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	store    *Store
	owner    Models.Employee
	other    Models.Employee
	session  Models.TimeLog
	baseTime time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := Models.OpenInMemory()
	require.NoError(t, err)

	f := &fixture{db: db, baseTime: time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)}
	f.store = NewStore(db, t.TempDir())
	f.store.Now = func() time.Time { return f.baseTime }

	f.owner = Models.Employee{Email: "owner@example.com", PasswordHash: "x", FirstName: "O", LastName: "W", IsActive: true, IsVerified: true, Permission: Models.PermissionEmployee}
	f.other = Models.Employee{Email: "other@example.com", PasswordHash: "x", FirstName: "O", LastName: "T", IsActive: true, IsVerified: true, Permission: Models.PermissionEmployee}
	require.NoError(t, db.Create(&f.owner).Error)
	require.NoError(t, db.Create(&f.other).Error)

	project := Models.Project{Name: "Alpha", IsActive: true}
	require.NoError(t, db.Create(&project).Error)
	task := Models.NewDefaultTask(project.ID)
	require.NoError(t, db.Create(&task).Error)

	end := f.baseTime.Add(time.Hour)
	duration := int64(3600)
	f.session = Models.TimeLog{EmployeeID: f.owner.ID, TaskID: task.ID, ProjectID: project.ID, StartTime: f.baseTime, EndTime: &end, Duration: &duration}
	require.NoError(t, db.Create(&f.session).Error)
	return f
}

func TestRecordDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	shot, err := f.store.Record(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID, ImageURL: "https://cdn.example.com/a.png"})
	require.NoError(t, err)
	assert.True(t, shot.HasPermission)
	assert.True(t, shot.Timestamp.Equal(f.baseTime))
	assert.Equal(t, f.owner.ID, shot.EmployeeID)

	denied := false
	at := f.baseTime.Add(5 * time.Minute)
	shot, err = f.store.Record(ctx, RecordInput{
		SessionID:     f.session.ID,
		EmployeeID:    f.owner.ID,
		ImageURL:      "https://cdn.example.com/b.png",
		Timestamp:     &at,
		HasPermission: &denied,
		Metadata:      map[string]interface{}{"screen": "primary"},
	})
	require.NoError(t, err)
	assert.False(t, shot.HasPermission)
	assert.Equal(t, "primary", shot.Metadata["screen"])
}

func TestRecordRejectsForeignSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Record(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.other.ID, ImageURL: "x"})
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
	_, err = f.store.Record(ctx, RecordInput{SessionID: "missing", EmployeeID: f.owner.ID, ImageURL: "x"})
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
	_, err = f.store.Record(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID})
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))
}

func TestListBySessionAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 2; i >= 0; i-- {
		at := f.baseTime.Add(time.Duration(i) * time.Minute)
		_, err := f.store.Record(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID, ImageURL: "u", Timestamp: &at})
		require.NoError(t, err)
	}

	shots, err := f.store.ListBySession(ctx, f.session.ID, Identity.Caller{EmployeeID: f.owner.ID, Permission: Models.PermissionEmployee})
	require.NoError(t, err)
	require.Len(t, shots, 3)
	assert.True(t, shots[0].Timestamp.Before(shots[1].Timestamp))
	assert.True(t, shots[1].Timestamp.Before(shots[2].Timestamp))

	_, err = f.store.ListBySession(ctx, f.session.ID, Identity.Caller{EmployeeID: f.other.ID, Permission: Models.PermissionEmployee})
	assert.True(t, AppErrors.Is(err, AppErrors.KindForbidden))

	shots, err = f.store.ListBySession(ctx, f.session.ID, Identity.Caller{EmployeeID: f.other.ID, Permission: Models.PermissionManager})
	require.NoError(t, err)
	assert.Len(t, shots, 3)

	_, err = f.store.ListBySession(ctx, "missing", Identity.Caller{EmployeeID: f.owner.ID})
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
}

func TestListByEmployeeRangeIsInclusiveAndDescending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	times := []time.Time{
		f.baseTime.Add(-time.Hour),
		f.baseTime,
		f.baseTime.Add(30 * time.Minute),
		f.baseTime.Add(time.Hour),
		f.baseTime.Add(2 * time.Hour),
	}
	for i := range times {
		_, err := f.store.Record(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID, ImageURL: "u", Timestamp: &times[i]})
		require.NoError(t, err)
	}

	shots, err := f.store.ListByEmployeeRange(ctx, f.owner.ID, f.baseTime, f.baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, shots, 3)
	assert.True(t, shots[0].Timestamp.Equal(times[3]))
	assert.True(t, shots[2].Timestamp.Equal(times[1]))
	require.NotNil(t, shots[0].TimeLog)
	assert.Equal(t, f.session.ID, shots[0].TimeLog.ID)
	require.NotNil(t, shots[0].TimeLog.Duration)
	assert.Equal(t, int64(3600), *shots[0].TimeLog.Duration)

	none, err := f.store.ListByEmployeeRange(ctx, f.other.ID, f.baseTime, f.baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteScreenshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	shot, err := f.store.Record(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID, ImageURL: "u"})
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(ctx, shot.ID))
	assert.True(t, AppErrors.Is(f.store.Delete(ctx, shot.ID), AppErrors.KindNotFound))
}

func TestRecordUploadWritesThumbnail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(640, 400, color.White), imaging.PNG))

	shot, err := f.store.RecordUpload(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID}, "capture.png", &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(shot.ImageURL, "/uploads/"+f.owner.ID+"/"))
	assert.True(t, strings.HasSuffix(shot.ThumbnailURL, "_thumb.png"))

	thumbPath := filepath.Join(f.store.UploadDir, strings.TrimPrefix(shot.ThumbnailURL, "/uploads/"))
	thumb, err := imaging.Open(thumbPath)
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())

	_, err = os.Stat(filepath.Join(f.store.UploadDir, strings.TrimPrefix(shot.ImageURL, "/uploads/")))
	assert.NoError(t, err)
}

func TestRecordUploadRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.RecordUpload(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID}, "notes.txt", strings.NewReader("hello"))
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))

	_, err = f.store.RecordUpload(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.owner.ID}, "fake.png", strings.NewReader("not an image"))
	assert.True(t, AppErrors.Is(err, AppErrors.KindValidation))

	_, err = f.store.RecordUpload(ctx, RecordInput{SessionID: f.session.ID, EmployeeID: f.other.ID}, "capture.png", strings.NewReader("x"))
	assert.True(t, AppErrors.Is(err, AppErrors.KindNotFound))
}
