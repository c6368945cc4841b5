package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegram_OK(t *testing.T) {
	var gotPath string
	var payload map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	tg := NewTelegram("tok123")
	tg.BaseURL = ts.URL
	if err := tg.Send(context.Background(), "42", "hello"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.Contains(gotPath, "bottok123/sendMessage") {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if payload["chat_id"] != "42" || payload["text"] != "hello" {
		t.Fatalf("payload not as expected: %+v", payload)
	}
}

func TestTelegram_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(403)
	}))
	defer ts.Close()

	tg := NewTelegram("tok")
	tg.BaseURL = ts.URL
	if err := tg.Send(context.Background(), "42", "x"); err == nil {
		t.Fatal("expected error on non-2xx")
	}
}

func TestTelegram_EmptyChatID(t *testing.T) {
	tg := NewTelegram("tok")
	if err := tg.Send(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error on empty chat id")
	}
}

func TestNewTelegram_DisabledWithoutToken(t *testing.T) {
	if tg := NewTelegram(""); tg != nil {
		t.Fatal("expected nil sender without token")
	}
}
