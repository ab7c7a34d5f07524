package artifact

import (
	"context"
	"errors"
	"fmt"

	"storycodex/internal/fileutil"
)

// Batch stages the outputs of one stage in memory so they are committed only
// after the stage has fully succeeded.
type Batch struct {
	writes []pending
}

type pending struct {
	ref  Ref
	data []byte
}

// Put stages raw bytes for ref. A later Put for the same ref replaces the earlier one.
func (b *Batch) Put(ref Ref, data []byte) {
	for i := range b.writes {
		if b.writes[i].ref.Path() == ref.Path() {
			b.writes[i].data = data
			return
		}
	}
	b.writes = append(b.writes, pending{ref: ref, data: data})
}

// PutJSON encodes v in the artifact form and stages it.
func (b *Batch) PutJSON(ref Ref, v any) error {
	data, err := EncodeJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ref.Path(), err)
	}
	b.Put(ref, data)
	return nil
}

// Refs lists the staged refs in insertion order.
func (b *Batch) Refs() []Ref {
	out := make([]Ref, len(b.writes))
	for i, w := range b.writes {
		out[i] = w.ref
	}
	return out
}

// Digest pairs a staged ref with the SHA-256 of its bytes.
type Digest struct {
	Ref    Ref
	SHA256 string
}

// Digests hashes every staged write in insertion order.
func (b *Batch) Digests() []Digest {
	out := make([]Digest, len(b.writes))
	for i, w := range b.writes {
		out[i] = Digest{Ref: w.ref, SHA256: fileutil.HashBytes(w.data)}
	}
	return out
}

// Len returns the number of staged writes.
func (b *Batch) Len() int { return len(b.writes) }

// prior is the state of a ref before Commit touched it.
type prior struct {
	ref     Ref
	data    []byte
	existed bool
}

// Commit writes every staged artifact in order. If any write fails, refs
// already written are restored to their previous bytes, or removed when they
// did not exist, so a failed commit leaves the store as it found it.
func (b *Batch) Commit(ctx context.Context, s Store) error {
	saved := make([]prior, 0, len(b.writes))
	for _, w := range b.writes {
		p, err := snapshot(ctx, s, w.ref)
		if err != nil {
			return err
		}
		saved = append(saved, p)
	}
	for i, w := range b.writes {
		if err := s.Store(ctx, w.ref, w.data); err != nil {
			if rbErr := rollback(context.WithoutCancel(ctx), s, saved[:i]); rbErr != nil {
				return errors.Join(err, rbErr)
			}
			return err
		}
	}
	return nil
}

func snapshot(ctx context.Context, s Store, ref Ref) (prior, error) {
	ok, err := s.Exists(ctx, ref)
	if err != nil {
		return prior{}, err
	}
	if !ok {
		return prior{ref: ref}, nil
	}
	data, err := s.Load(ctx, ref)
	if err != nil {
		return prior{}, err
	}
	return prior{ref: ref, data: data, existed: true}, nil
}

// rollback undoes writes newest first and keeps going past failures.
func rollback(ctx context.Context, s Store, saved []prior) error {
	var errs []error
	for i := len(saved) - 1; i >= 0; i-- {
		p := saved[i]
		var err error
		if p.existed {
			err = s.Store(ctx, p.ref, p.data)
		} else {
			err = s.Delete(ctx, p.ref)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("roll back %s: %w", p.ref.Path(), err))
		}
	}
	return errors.Join(errs...)
}
