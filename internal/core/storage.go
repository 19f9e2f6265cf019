package core

import "context"

const (
	UsersKey  = "users"
	LimitsKey = "user_limits"
)

// KVStore is the external key-value contract. Absent keys report found=false.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type AccountsRepository interface {
	List(ctx context.Context) ([]Account, error)
	Find(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, email string, fn func(*Account) error) (*Account, error)
	Count(ctx context.Context) (int, error)
}

type LimitsRepository interface {
	Load(ctx context.Context) (map[string]QuotaRecord, error)
	Save(ctx context.Context, records map[string]QuotaRecord) error
}
