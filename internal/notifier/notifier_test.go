package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTelegram_SendUnconfigured(t *testing.T) {
	tg := NewTelegram("", "", "")
	if tg.Send("title", "body") {
		t.Error("unconfigured notifier must report false")
	}

	tg = NewTelegram("token-only", "", "")
	if tg.Send("title", "body") {
		t.Error("notifier without a chat id must report false")
	}
}

func TestTelegram_Send(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "12345", "")
	tg.endpoint = srv.URL

	if !tg.Send("Error Rate Alert", "5 errors / 100 requests") {
		t.Fatal("expected send to succeed")
	}
	if got.ChatID != "12345" {
		t.Errorf("expected chat id 12345, got %q", got.ChatID)
	}
	if got.ParseMode != "Markdown" {
		t.Errorf("expected Markdown parse mode, got %q", got.ParseMode)
	}
	expected := "*Error Rate Alert*\n\n5 errors / 100 requests"
	if got.Text != expected {
		t.Errorf("expected %q, got %q", expected, got.Text)
	}
}

func TestTelegram_SendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram("bot-token", "12345", "")
	tg.endpoint = srv.URL

	if tg.Send("title", "body") {
		t.Error("expected send to report failure on non-200 status")
	}
}

func TestNewHTTPClient_ProxySchemes(t *testing.T) {
	tests := []struct {
		name     string
		proxyURL string
		wantErr  bool
	}{
		{"direct", "", false},
		{"http proxy", "http://127.0.0.1:8080", false},
		{"socks5 proxy", "socks5://127.0.0.1:1080", false},
		{"unsupported scheme", "ftp://127.0.0.1:21", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newHTTPClient(tt.proxyURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("newHTTPClient(%q) error = %v, wantErr %v", tt.proxyURL, err, tt.wantErr)
			}
		})
	}
}

func TestTelegram_InvalidProxyFallsBack(t *testing.T) {
	tg := NewTelegram("token", "chat", "ftp://bad-proxy")
	if tg.client == nil {
		t.Fatal("expected a usable client after proxy fallback")
	}
}
