package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookNotifier sends alerts via webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// ForWebhookURLs builds a notifier from a comma separated url list,
// fanning out when more than one url is given. Returns nil when the
// list holds no urls.
func ForWebhookURLs(list string) Notifier {
	var notifiers []Notifier
	for _, url := range strings.Split(list, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		notifiers = append(notifiers, NewWebhookNotifier(url))
	}
	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	}
	return NewMultiNotifier(notifiers...)
}

// Notify sends an alert to webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	content := formatAlertMessage(msg)
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: content},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook notifier: non-2xx")
	}
	return nil
}

func formatAlertMessage(msg AlertMessage) string {
	var b strings.Builder
	b.WriteString("[Registry Alert]\n")
	if msg.HouseholdID != "" {
		fmt.Fprintf(&b, "Household: %s\n", msg.HouseholdID)
	}
	if msg.Consumer != "" {
		fmt.Fprintf(&b, "Consumer: %s\n", msg.Consumer)
	}
	if msg.Operation != "" {
		fmt.Fprintf(&b, "Operation: %s\n", msg.Operation)
	}
	if msg.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", msg.Reason)
	}
	for key, value := range msg.Meta {
		fmt.Fprintf(&b, "%s: %s\n", key, value)
	}
	return strings.TrimSpace(b.String())
}
