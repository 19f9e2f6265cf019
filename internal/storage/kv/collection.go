package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/lifecoach/internal/core"
)

func load(ctx context.Context, store core.KVStore, key string, dst any) (bool, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %w", core.ErrStorageFault, key, err)
	}
	if !found || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: decode %s: %w", core.ErrStorageFault, key, err)
	}
	return true, nil
}

func save(ctx context.Context, store core.KVStore, key string, src any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", core.ErrStorageFault, key, err)
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: write %s: %w", core.ErrStorageFault, key, err)
	}
	return nil
}
