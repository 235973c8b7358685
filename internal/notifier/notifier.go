// Package notifier delivers alert messages to a telegram chat. Delivery is
// fire and forget: failures are logged, never retried, never propagated.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bestruirui/argus/internal/utils/log"
)

type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client

	// endpoint is overridable for tests; empty means the real API.
	endpoint string
}

func NewTelegram(botToken, chatID, proxyURL string) *Telegram {
	client, err := newHTTPClient(proxyURL)
	if err != nil {
		log.Warnf("notifier: invalid proxy url, falling back to direct: %v", err)
		client, _ = newHTTPClient("")
	}
	client.Timeout = 10 * time.Second
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   client,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts one Markdown message. Returns false without complaint when the
// transport is not configured; the alerter treats that as "nothing to do".
func (t *Telegram) Send(title, body string) bool {
	if t.botToken == "" || t.chatID == "" {
		log.Warnf("notifier: telegram not configured, skipping notification")
		return false
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      fmt.Sprintf("*%s*\n\n%s", title, body),
		ParseMode: "Markdown",
	})
	if err != nil {
		log.Errorf("notifier: marshaling message failed: %v", err)
		return false
	}

	url := t.endpoint
	if url == "" {
		url = "https://api.telegram.org/bot" + t.botToken + "/sendMessage"
	}
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Errorf("notifier: telegram request failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Errorf("notifier: telegram returned status %d", resp.StatusCode)
		return false
	}
	return true
}
