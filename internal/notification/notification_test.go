package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookNotifier_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if lvl := r.Header.Get("X-Alert-Level"); lvl != "WARNING" {
			t.Errorf("unexpected level header %q", lvl)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{
		Level: AlertWarning, Title: "plan daily", Message: "1 run failed",
		Fields: map[string]string{"symbol": "ACME"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["level"] != "WARNING" || got["title"] != "plan daily" || got["ts"] == nil || got["source"] != "trading-analytics" {
		t.Errorf("unexpected payload %v", got)
	}
	if fields, _ := got["fields"].(map[string]any); fields["symbol"] != "ACME" {
		t.Errorf("fields not forwarded: %v", got["fields"])
	}
}

func TestWebhookNotifier_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down\n")
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42")
	n.baseURL = srv.URL
	if err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "plan", Message: "ok"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if path != "/botTOKEN/sendMessage" {
		t.Errorf("unexpected path %q", path)
	}
	if body["chat_id"] != "42" || body["parse_mode"] != "MarkdownV2" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestTelegramNotifier_Text(t *testing.T) {
	n := NewTelegramNotifier("t", "c")
	text := n.Text(Alert{
		Level:   AlertCritical,
		Title:   "plan daily.yaml",
		Message: "return -9.09%",
		Body:    "run `a`  +1.00%",
		Fields:  map[string]string{"b": "2", "a": "1"},
	})
	for _, want := range []string{"🚨", `plan daily\.yaml`, `return \-9\.09%`, "a: `1`\nb: `2`", "```\nrun \\`a\\`  +1.00%\n```"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

type failing struct{ err error }

func (f failing) Send(context.Context, Alert) error { return f.err }

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{NewLogNotifier(), failing{boom}, NewLogNotifier()}
	if err := m.Send(context.Background(), Alert{Title: "x"}); !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if err := (Multi{NewLogNotifier()}).Send(context.Background(), Alert{}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
