// Package kvtest provides store doubles for tests.
package kvtest

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sandevgo/lifecoach/internal/core"
)

var ErrInjected = errors.New("injected store failure")

// FaultStore wraps a KVStore and fails reads or writes on demand.
type FaultStore struct {
	core.KVStore
	FailGet atomic.Bool
	FailPut atomic.Bool
	Puts    atomic.Int64
}

func NewFaultStore(inner core.KVStore) *FaultStore {
	return &FaultStore{KVStore: inner}
}

func (f *FaultStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.FailGet.Load() {
		return nil, false, ErrInjected
	}
	return f.KVStore.Get(ctx, key)
}

func (f *FaultStore) Put(ctx context.Context, key string, value []byte) error {
	if f.FailPut.Load() {
		return ErrInjected
	}
	f.Puts.Add(1)
	return f.KVStore.Put(ctx, key, value)
}
