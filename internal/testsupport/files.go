package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"storycodex/internal/artifact"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// PutArtifact stores raw bytes at ref.
func PutArtifact(t testing.TB, store artifact.Store, ref artifact.Ref, content string) {
	t.Helper()

	if err := store.Store(context.Background(), ref, []byte(content)); err != nil {
		t.Fatalf("store %s: %v", ref, err)
	}
}

// PutJSON stores v as an artifact JSON document at ref.
func PutJSON(t testing.TB, store artifact.Store, ref artifact.Ref, v any) {
	t.Helper()

	if err := artifact.StoreJSON(context.Background(), store, ref, v); err != nil {
		t.Fatalf("store %s: %v", ref, err)
	}
}

// LoadJSON decodes the artifact at ref into a generic map.
func LoadJSON(t testing.TB, store artifact.Store, ref artifact.Ref) map[string]any {
	t.Helper()

	data, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("load %s: %v", ref, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", ref, err)
	}
	return out
}

// MustJSON encodes v for use as a scripted generator reply.
func MustJSON(t testing.TB, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode reply: %v", err)
	}
	return string(data)
}
