package telegram

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"classroom_sync/internal/app"
	"classroom_sync/internal/domain/progress"
	"classroom_sync/internal/domain/student"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeClient struct {
	sent []sentMessage
	err  error
}

func (f *fakeClient) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return f.err
}

type progressFunc func(ctx context.Context, email string) (*app.StudentProgress, error)

func (f progressFunc) StudentSummary(ctx context.Context, email string) (*app.StudentProgress, error) {
	return f(ctx, email)
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestSyncNotifierReportsSummary(t *testing.T) {
	client := &fakeClient{}
	n := NewSyncNotifier(client, -100, testLogger())

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	n.Report(context.Background(), &app.SyncResult{RunID: "run-1", Courses: 2, StartedAt: start, FinishedAt: start.Add(time.Second)}, nil)

	require.Len(t, client.sent, 1)
	assert.Equal(t, int64(-100), client.sent[0].chatID)
	assert.Contains(t, client.sent[0].text, "Sync finished\n")
	assert.Contains(t, client.sent[0].text, "run-1")
}

func TestSyncNotifierReportsProblems(t *testing.T) {
	client := &fakeClient{err: errors.New("telegram down")}
	n := NewSyncNotifier(client, 1, testLogger())

	n.Report(context.Background(), &app.SyncResult{RunID: "run-2", Errors: []app.ItemError{{Kind: app.KindCourse, Key: "c1"}}}, nil)
	n.Report(context.Background(), nil, app.ErrProviderUnavailable)

	require.Len(t, client.sent, 2)
	assert.Contains(t, client.sent[0].text, "with problems")
	assert.Contains(t, client.sent[0].text, "errors: 1")
	assert.Equal(t, "Sync failed: classroom provider unavailable", client.sent[1].text)
}

func TestProgressReply(t *testing.T) {
	reader := progressFunc(func(_ context.Context, email string) (*app.StudentProgress, error) {
		switch email {
		case "alice@student.com":
			return &app.StudentProgress{
				Student: &student.Student{Email: email, Name: "Alice", Cohort: sql.NullString{String: "Cohort A", Valid: true}},
				Progress: progress.Summary{
					Total: 3, Delivered: 1, Late: 1, Missing: 1,
					DeliveredPercentage: 33, LatePercentage: 33, MissingPercentage: 33,
				},
			}, nil
		case "ghost@student.com":
			return nil, student.ErrNotFound
		}
		return nil, errors.New("db down")
	})
	ctx := context.Background()

	assert.Equal(t, "Usage: /progress <email>", progressReply(ctx, reader, nil, testLogger()))
	assert.Equal(t, "Usage: /progress <email>", progressReply(ctx, reader, []string{"alice"}, testLogger()))
	assert.Equal(t, "No student with email ghost@student.com.", progressReply(ctx, reader, []string{"Ghost@Student.com"}, testLogger()))
	assert.Equal(t, "Could not load progress, try again later.", progressReply(ctx, reader, []string{"x@y.z"}, testLogger()))

	reply := progressReply(ctx, reader, []string{"alice@student.com"}, testLogger())
	assert.Contains(t, reply, "Alice <alice@student.com>")
	assert.Contains(t, reply, "Cohort: Cohort A")
	assert.Contains(t, reply, "Late: 1 (33%)")
	assert.NotContains(t, reply, "Unclassified")
}
