package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootListsSubcommands(t *testing.T) {
	out, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"login", "logout", "whoami", "notifications", "conversations", "invite", "campaign", "dash"} {
		if !strings.Contains(out, name) {
			t.Errorf("help output missing %q", name)
		}
	}
}

func TestWhoamiNotLoggedIn(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	out, err := runCommand(t, "whoami", "--state-dir", t.TempDir())
	if err == nil {
		t.Fatalf("expected error, got output %q", out)
	}
	if !strings.Contains(err.Error(), "not logged in") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoginThenWhoami(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	stateDir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":           "u1",
			"display_name": "Mika",
			"role":         "INFLUENCER",
			"token":        "opaque-token",
		})
	}))
	defer server.Close()
	t.Setenv("PUBLIMATCH_BASE_URL", server.URL)

	out, err := runCommand(t, "login", "mika@example.com", "-p", "secret", "--state-dir", stateDir)
	if err != nil {
		t.Fatalf("login: %v (%s)", err, out)
	}
	if !strings.Contains(out, "Logged in as Mika") {
		t.Errorf("unexpected login output: %q", out)
	}

	out, err = runCommand(t, "whoami", "--state-dir", stateDir)
	if err != nil {
		t.Fatalf("whoami: %v (%s)", err, out)
	}
	if !strings.Contains(out, "Mika (INFLUENCER)") {
		t.Errorf("unexpected whoami output: %q", out)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "invalid credentials"})
	}))
	defer server.Close()
	t.Setenv("PUBLIMATCH_BASE_URL", server.URL)

	_, err := runCommand(t, "login", "mika@example.com", "-p", "nope", "--state-dir", t.TempDir())
	if err == nil {
		t.Fatal("expected login failure")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}
