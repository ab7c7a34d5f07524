package artifact

import (
	"context"
	"fmt"

	"storycodex/internal/services"
)

// Store persists artifacts by ref. Implementations write atomically: a reader
// sees either the previous bytes or the new bytes, never a partial write.
type Store interface {
	Exists(ctx context.Context, ref Ref) (bool, error)
	Load(ctx context.Context, ref Ref) ([]byte, error)
	Store(ctx context.Context, ref Ref, data []byte) error
	// Delete removes ref. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, ref Ref) error
}

// NotFound builds the error returned by Load for a missing artifact.
func NotFound(ref Ref) error {
	return fmt.Errorf("%w: artifact %s (%s)", services.ErrNotFound, ref, ref.Path())
}

func validateRef(ref Ref) error {
	if !ref.Kind.Known() {
		return fmt.Errorf("%w: unknown artifact kind %q", services.ErrValidation, ref.Kind)
	}
	return nil
}
