package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// runCLI executes the root command with args against a fresh command tree.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// setupProject writes a storycodex.toml pointing the backend at baseURL and
// returns the project root.
func setupProject(t *testing.T, baseURL string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	content := fmt.Sprintf(`[llm]
backend = "openai"
base_url = %q
model = "test-model"
timeout_seconds = 5
retry_attempts = 1

[storage]
registry = false

[logging]
level = "error"
`, baseURL)
	if err := os.WriteFile(filepath.Join(root, "storycodex.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return root
}

// chatServer answers /v1/models and replies to chat completions with the
// given contents in order.
func chatServer(t *testing.T, replies ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			_, _ = w.Write([]byte(`{"data":[{"id":"test-model"}]}`))
		case "/v1/chat/completions":
			n := int(calls.Add(1))
			if n > len(replies) {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			body := map[string]any{
				"choices": []map[string]any{{"message": map[string]string{"content": replies[n-1]}}},
			}
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}
