package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordNotifier_Notify(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST request, got %s", r.Method)
		}

		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &payload)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL, 0)
	err := notifier.Notify(context.Background(), Message{Content: "Hello Discord!"})
	require.NoError(t, err)

	assert.Equal(t, "Hello Discord!", payload["content"])
	_, hasUsername := payload["username"]
	assert.False(t, hasUsername, "username is omitted when not set")
}

func TestDiscordNotifier_Notify_Username(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL, time.Second)
	notifier.UserAgent = "goblin/test"
	err := notifier.Notify(context.Background(), Message{Content: "hi", Username: "CI Bot"})
	require.NoError(t, err)

	assert.Equal(t, "hi", payload["content"])
	assert.Equal(t, "CI Bot", payload["username"])
}

func TestDiscordNotifier_Notify_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Cannot send an empty message"}`))
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL, 0)
	err := notifier.Notify(context.Background(), Message{Content: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status: 400")
	assert.Contains(t, err.Error(), "Cannot send an empty message")
}

func TestDiscordNotifier_Notify_MissingURL(t *testing.T) {
	notifier := NewDiscordNotifier("", 0)

	err := notifier.Notify(context.Background(), Message{Content: "test"})
	assert.Error(t, err)
}

func TestDiscordNotifier_Notify_InvalidMessage(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL, 0)
	err := notifier.Notify(context.Background(), Message{Content: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, called, "invalid messages never reach the network")
}

func TestDiscordNotifier_Notify_RequestError(t *testing.T) {
	// Invalid URL (control character)
	notifier := NewDiscordNotifier("http://example.com/\x00", 0)
	err := notifier.Notify(context.Background(), Message{Content: "msg"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create discord request")
}

func TestDiscordNotifier_Notify_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	notifier := NewDiscordNotifier(server.URL, 50*time.Millisecond)
	start := time.Now()
	err := notifier.Notify(context.Background(), Message{Content: "slow"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDiscordNotifier_Deliver(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	var errOut bytes.Buffer
	var outcomes []bool
	notifier := NewDiscordNotifier(server.URL, 0)
	notifier.ErrOut = &errOut
	notifier.OnDelivery = func(ok bool) { outcomes = append(outcomes, ok) }

	assert.True(t, notifier.Deliver(context.Background(), Message{Content: "ok"}))
	assert.Empty(t, errOut.String())

	status = http.StatusInternalServerError
	assert.False(t, notifier.Deliver(context.Background(), Message{Content: "fail"}))
	assert.True(t, strings.HasPrefix(errOut.String(), "Error sending to Discord: "))

	assert.Equal(t, []bool{true, false}, outcomes)
}

func TestDiscordNotifier_Deliver_ConnectionError(t *testing.T) {
	var errOut bytes.Buffer
	notifier := NewDiscordNotifier("http://127.0.0.1:1", time.Second)
	notifier.ErrOut = &errOut

	assert.False(t, notifier.Deliver(context.Background(), Message{Content: "x"}))
	assert.Contains(t, errOut.String(), "Error sending to Discord")
}

func TestDiscordNotifier_ImplementsInterfaces(t *testing.T) {
	var _ Notifier = (*DiscordNotifier)(nil)
	var _ Deliverer = (*DiscordNotifier)(nil)
}

func TestDiscordNotifier_Deliver_QuietAtDefaultLevel(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	var logBuf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var errOut bytes.Buffer
	notifier := NewDiscordNotifier(server.URL, 0)
	notifier.ErrOut = &errOut

	assert.False(t, notifier.Deliver(context.Background(), Message{Content: "x"}))
	assert.Equal(t, 1, strings.Count(errOut.String(), "Error sending to Discord"))
	assert.Empty(t, logBuf.String(), "the operator line is the only output at the default level")
}
