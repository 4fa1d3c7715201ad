package Slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Chronos/Reports"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestMessage(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	msg := DigestMessage(day, []Reports.EmployeeTotal{
		{Name: "Ada Lovelace", Sessions: 2, TotalDuration: 3600},
		{Name: "Alan Turing", Sessions: 1, TotalDuration: 90},
	})

	assert.Contains(t, msg.Text, "2024-03-04")
	assert.Contains(t, msg.Text, "1:01:30")
	require.Len(t, msg.Attachments, 1)
	require.Len(t, msg.Attachments[0].Fields, 2)
	assert.Equal(t, "Ada Lovelace", msg.Attachments[0].Fields[0].Title)
	assert.Equal(t, "1:00:00 (2 sessions)", msg.Attachments[0].Fields[0].Value)

	empty := DigestMessage(day, nil)
	assert.Contains(t, empty.Text, "no closed sessions")
}

func TestPostDigestSendsWebhook(t *testing.T) {
	var received slack.WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, "#time")
	err := n.PostDigest(context.Background(), time.Now(), []Reports.EmployeeTotal{{Name: "Ada", Sessions: 1, TotalDuration: 60}})
	require.NoError(t, err)

	assert.Equal(t, "#time", received.Channel)
	assert.Equal(t, "Chronos", received.Username)
	assert.Contains(t, received.Text, "Tracked time")
}

func TestDisabledNotifierIsNoop(t *testing.T) {
	n := NewNotifier("", "")
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PostDigest(context.Background(), time.Now(), nil))

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())
}

func TestPostReportsWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewNotifier(server.URL, "").Post(context.Background(), &slack.WebhookMessage{Text: "hi"})
	assert.Error(t, err)
}
