package kv

import (
	"context"

	"github.com/sandevgo/lifecoach/internal/core"
)

// Limits is the user_limits collection: a JSON object keyed by identity.
type Limits struct {
	store core.KVStore
}

func NewLimits(store core.KVStore) *Limits {
	return &Limits{store: store}
}

func (l *Limits) Load(ctx context.Context) (map[string]core.QuotaRecord, error) {
	records := make(map[string]core.QuotaRecord)
	if _, err := load(ctx, l.store, core.LimitsKey, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = make(map[string]core.QuotaRecord)
	}
	return records, nil
}

func (l *Limits) Save(ctx context.Context, records map[string]core.QuotaRecord) error {
	return save(ctx, l.store, core.LimitsKey, records)
}
