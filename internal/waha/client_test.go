package waha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatID(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"bare number", "5215512345678", "5215512345678@c.us"},
		{"plus prefix stripped", "+5215512345678", "5215512345678@c.us"},
		{"already formatted passes through", "5215512345678@c.us", "5215512345678@c.us"},
		{"group id untouched", "123456789@g.us", "123456789@g.us"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChatID(tt.phone); got != tt.want {
				t.Fatalf("ChatID(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestSendText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", "gym")
	if err := c.SendText(context.Background(), "+5215512345678", "Hola Juan"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/sendText" {
		t.Fatalf("path = %s, want /api/sendText", gotPath)
	}
	if gotKey != "secret-key" {
		t.Fatalf("api key header = %q, want secret-key", gotKey)
	}
	if gotBody["chatId"] != "5215512345678@c.us" {
		t.Fatalf("chatId = %q, want 5215512345678@c.us", gotBody["chatId"])
	}
	if gotBody["session"] != "gym" {
		t.Fatalf("session = %q, want gym", gotBody["session"])
	}
	if gotBody["text"] != "Hola Juan" {
		t.Fatalf("text = %q, want Hola Juan", gotBody["text"])
	}
}

func TestSendTextSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "session not started"})
	}))
	defer srv.Close()

	c := New(srv.URL, "", "")
	err := c.SendText(context.Background(), "5215512345678", "hola")
	if err == nil {
		t.Fatal("expected error from gateway failure")
	}
	if want := "session not started"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not surface gateway message %q", err, want)
	}
}

func TestSendTextWithoutBaseURL(t *testing.T) {
	c := &Client{}
	if err := c.SendText(context.Background(), "5215512345678", "hola"); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestSessionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/gym" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !New(srv.URL, "", "gym").SessionStatus(context.Background()) {
		t.Fatal("existing session should report healthy")
	}
	if New(srv.URL, "", "other").SessionStatus(context.Background()) {
		t.Fatal("missing session should report unhealthy")
	}
}
