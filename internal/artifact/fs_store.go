package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"storycodex/internal/fileutil"
	"storycodex/internal/services"
)

// LockFileName is the single-writer lock file in the project root.
const LockFileName = ".storycodex.lock"

// FSStore keeps artifacts as files under a project root.
type FSStore struct {
	root string
}

// NewFSStore returns a store rooted at root.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// Root returns the project root.
func (s *FSStore) Root() string { return s.root }

// Abs returns the absolute file path for ref.
func (s *FSStore) Abs(ref Ref) string {
	return filepath.Join(s.root, filepath.FromSlash(ref.Path()))
}

func (s *FSStore) Exists(ctx context.Context, ref Ref) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validateRef(ref); err != nil {
		return false, err
	}
	info, err := os.Stat(s.Abs(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", ref.Path(), err)
	}
	return !info.IsDir(), nil
}

func (s *FSStore) Load(ctx context.Context, ref Ref) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Abs(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFound(ref)
		}
		return nil, fmt.Errorf("read %s: %w", ref.Path(), err)
	}
	return data, nil
}

func (s *FSStore) Store(ctx context.Context, ref Ref, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.Abs(ref), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ref.Path(), err)
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, ref Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := os.Remove(s.Abs(ref)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", ref.Path(), err)
	}
	return nil
}

// Lock takes the exclusive workspace lock. It fails immediately when another
// process holds it.
func (s *FSStore) Lock() (func() error, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	lock := flock.New(filepath.Join(s.root, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "", "lock", "another storycodex process is writing to "+s.root, nil)
	}
	return lock.Unlock, nil
}
