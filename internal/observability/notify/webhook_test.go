package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestWebhookNotifierPayload(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	err := notifier.Notify(context.Background(), AlertMessage{
		HouseholdID: "hh-42",
		Consumer:    "fees.household",
		Operation:   "update",
		Reason:      "period repository unavailable",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	payload := <-payloadCh
	if payload.MsgType != "text" {
		t.Fatalf("unexpected msgtype %q", payload.MsgType)
	}
	content := payload.Text.Content
	for _, want := range []string{"hh-42", "fees.household", "update", "period repository unavailable"} {
		if !strings.Contains(content, want) {
			t.Fatalf("content missing %q: %s", want, content)
		}
	}
}

func TestWebhookNotifierRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	if err := notifier.Notify(context.Background(), AlertMessage{HouseholdID: "hh-1"}); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}

func TestWebhookNotifierEmptyURL(t *testing.T) {
	notifier := NewWebhookNotifier("")
	if err := notifier.Notify(context.Background(), AlertMessage{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

type recordingNotifier struct {
	messages []AlertMessage
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, msg AlertMessage) error {
	r.messages = append(r.messages, msg)
	return r.err
}

func TestMultiNotifierFansOut(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	multi := NewMultiNotifier(first, nil, second)

	if err := multi.Notify(context.Background(), AlertMessage{HouseholdID: "hh-9"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(first.messages) != 1 || len(second.messages) != 1 {
		t.Fatalf("expected both notifiers called, got %d and %d", len(first.messages), len(second.messages))
	}
}

func TestForWebhookURLs(t *testing.T) {
	if notifier := ForWebhookURLs(""); notifier != nil {
		t.Fatalf("expected nil notifier for empty list, got %T", notifier)
	}
	if notifier := ForWebhookURLs(" , "); notifier != nil {
		t.Fatalf("expected nil notifier for blank entries, got %T", notifier)
	}
	if _, ok := ForWebhookURLs("http://hooks.local/a").(*WebhookNotifier); !ok {
		t.Fatal("expected a single webhook notifier")
	}
	if _, ok := ForWebhookURLs("http://hooks.local/a, http://hooks.local/b").(*MultiNotifier); !ok {
		t.Fatal("expected a fan-out notifier for two urls")
	}
}

func TestForWebhookURLsFansOutDeliveries(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := ForWebhookURLs(server.URL + "/a," + server.URL + "/b")
	if err := notifier.Notify(context.Background(), AlertMessage{HouseholdID: "hh-3"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if hits["/a"] != 1 || hits["/b"] != 1 {
		t.Fatalf("expected both endpoints hit once, got %v", hits)
	}
}
