package artifact

import (
	"context"
	"encoding/json"
	"fmt"

	"storycodex/internal/services"
	"storycodex/internal/tree"
)

// LoadJSON decodes the artifact at ref into out.
func LoadJSON(ctx context.Context, s Store, ref Ref, out any) error {
	data, err := s.Load(ctx, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse %s: %w", services.ErrValidation, ref.Path(), err)
	}
	return nil
}

// LoadTree decodes the artifact at ref as a document value, honouring YAML seed refs.
func LoadTree(ctx context.Context, s Store, ref Ref) (tree.Value, error) {
	data, err := s.Load(ctx, ref)
	if err != nil {
		return tree.Value{}, err
	}
	var v tree.Value
	if ref.IsYAML() {
		v, err = tree.ParseYAML(data)
	} else {
		v, err = tree.ParseJSON(data)
	}
	if err != nil {
		return tree.Value{}, fmt.Errorf("%w: parse %s: %w", services.ErrValidation, ref.Path(), err)
	}
	return v, nil
}

// EncodeJSON renders v in the on-disk artifact form.
func EncodeJSON(v any) ([]byte, error) {
	return tree.Pretty(v)
}

// StoreJSON encodes v in the on-disk artifact form and stores it at ref.
func StoreJSON(ctx context.Context, s Store, ref Ref, v any) error {
	data, err := EncodeJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ref.Path(), err)
	}
	return s.Store(ctx, ref, data)
}

// ResolveSeed returns the first existing encoding of a seed kind. The second
// result is false when no variant exists.
func ResolveSeed(ctx context.Context, s Store, kind Kind) (Ref, bool, error) {
	for _, ext := range SeedExtensions {
		ref := Ref{Kind: kind, Ext: ext}
		ok, err := s.Exists(ctx, ref)
		if err != nil {
			return Ref{}, false, err
		}
		if ok {
			return ref, true, nil
		}
	}
	return Ref{Kind: kind, Ext: ".json"}, false, nil
}
