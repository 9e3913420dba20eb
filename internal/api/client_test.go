package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/madokanomi/publimatch-cli/internal/types"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"https://api.example.com", "https://api.example.com", false},
		{"https://api.example.com/", "https://api.example.com", false},
		{"  https://api.example.com  ", "https://api.example.com", false},
		{"api.example.com", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeBaseURL(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "ana@example.com" {
			t.Errorf("email = %q", req.Email)
		}
		json.NewEncoder(w).Encode(LoginResponse{
			ID:          "u1",
			DisplayName: "Ana",
			Role:        types.RoleInfluencer,
			Token:       "tok",
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Login(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.ID != "u1" || resp.Token != "tok" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "invalid_credentials",
			"message": "Wrong email or password",
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Login(context.Background(), "ana@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.Status)
	}
	if apiErr.Message != "Wrong email or password" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAuthorizationHeaderAndPaths(t *testing.T) {
	var gotAuth string
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.EscapedPath()
		gotMethod = r.Method
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tok-123")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Notifications(context.Background()); err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/notifications" {
		t.Errorf("path = %q", gotPath)
	}

	if err := client.DeleteNotification(context.Background(), "n 1"); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q", gotMethod)
	}
	if gotPath != "/notifications/n%201" {
		t.Errorf("path = %q", gotPath)
	}

	if err := client.UpdateInviteStatus(context.Background(), "inv1", types.InviteAccepted); err != nil {
		t.Fatalf("UpdateInviteStatus: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/invites/inv1/status" {
		t.Errorf("invite call = %s %s", gotMethod, gotPath)
	}
}

func TestSendMessageEcho(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.Message{
			ID:             "m9",
			ConversationID: "c1",
			SenderID:       "u1",
			Text:           "hello",
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tok")
	if err != nil {
		t.Fatal(err)
	}
	msg, err := client.SendMessage(context.Background(), "c1", "u2", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.ID != "m9" || msg.ConversationID != "c1" {
		t.Errorf("unexpected echo: %+v", msg)
	}
}
