package sealbox

import (
	"context"
	"fmt"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/storage"
)

// Store seals values on their way into the wrapped store.
type Store struct {
	next storage.Store
	box  *Box
}

var _ storage.Store = (*Store)(nil)

// Wrap returns a Store that seals every value written to next.
func Wrap(next storage.Store, box *Box) *Store {
	return &Store{next: next, box: box}
}

func (s *Store) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	raw, err := s.next.Get(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		pt, err := s.box.Open(k, v)
		if err != nil {
			return nil, fmt.Errorf("%w: open %q: %v", errs.ErrCorruptState, k, err)
		}
		out[k] = string(pt)
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, kv map[string]string) error {
	sealed := make(map[string]string, len(kv))
	for k, v := range kv {
		ct, err := s.box.Seal(k, []byte(v))
		if err != nil {
			return fmt.Errorf("seal %q: %w", k, err)
		}
		sealed[k] = ct
	}
	return s.next.Put(ctx, sealed)
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.next.Delete(ctx, keys...)
}
