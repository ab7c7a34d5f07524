package artifact

import (
	"context"
	"errors"
	"sort"
	"time"

	"storycodex/internal/fileutil"
	"storycodex/internal/services"
)

// Meta is the sidecar written next to every generated artifact.
type Meta struct {
	CreatedAt   string            `json:"created_at"`
	Stage       string            `json:"stage"`
	RunID       string            `json:"run_id"`
	Model       string            `json:"model,omitempty"`
	Backend     string            `json:"backend,omitempty"`
	InputHashes map[string]string `json:"input_hashes"`
	Details     map[string]any    `json:"details,omitempty"`
}

// NewMeta stamps a sidecar with the current UTC time.
func NewMeta(stage, runID string, now time.Time) Meta {
	return Meta{
		CreatedAt:   now.UTC().Format(time.RFC3339Nano),
		Stage:       stage,
		RunID:       runID,
		InputHashes: map[string]string{},
	}
}

// HashInputs returns the SHA-256 of each existing ref keyed by its path.
// Missing refs are skipped.
func HashInputs(ctx context.Context, s Store, refs ...Ref) (map[string]string, error) {
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		data, err := s.Load(ctx, ref)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[ref.Path()] = fileutil.HashBytes(data)
	}
	return out, nil
}

// InputPaths returns the hashed input paths in sorted order.
func (m Meta) InputPaths() []string {
	out := make([]string, 0, len(m.InputHashes))
	for p := range m.InputHashes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
