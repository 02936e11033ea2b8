package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
)

type recordingSender struct {
	name   string
	err    error
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierFiltersEvents(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{EventRepricerError, " "}, quietLogger())

	if err := n.Notify(context.Background(), EventRepricerError, "failed", "boom"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := n.Notify(context.Background(), EventOfferRepriced, "repriced", "ok"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := n.NotifyAll(context.Background(), "all", "x"); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}

	if got := strings.Join(s.titles, ","); got != "failed,all" {
		t.Errorf("delivered titles = %q, want %q", got, "failed,all")
	}
}

func TestNotifierContinuesAfterSenderFailure(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, quietLogger())

	err := n.Notify(context.Background(), EventRepricerError, "t", "m")
	if err == nil || !strings.Contains(err.Error(), "bad: down") {
		t.Errorf("Notify error = %v, want bad sender failure", err)
	}
	if len(good.titles) != 1 {
		t.Errorf("good sender got %d messages, want 1", len(good.titles))
	}
}

func TestTelegramSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	if err := NewTelegramSender(srv.URL, "TOKEN", "42").Send(context.Background(), "Title", "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "*Title*\nbody" {
		t.Errorf("payload = %v", got)
	}
}

func TestDiscordSenderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("Send error = %v, want status 429", err)
	}
}

func TestEmailSender(t *testing.T) {
	var gotAddr string
	var gotMsg []byte
	e := NewEmailSender(EmailConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "bot@example.com",
		To:   []string{"ops@example.com"},
	})
	e.send = func(addr string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotAddr, gotMsg = addr, msg
		return nil
	}

	if err := e.Send(context.Background(), "Repricing failed\nBcc: x", "line1\nline2"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: Repricing failed Bcc: x\r\n") {
		t.Errorf("subject not sanitised:\n%s", msg)
	}
	if !strings.Contains(msg, "line1\r\nline2") {
		t.Errorf("body line endings not normalised:\n%s", msg)
	}
}
