package core

import (
	"context"
	"encoding/json"
	"time"
)

// Plan is an immutable admission policy. Unbounded plans ignore MessageLimit.
type Plan struct {
	Name         string        `json:"name"`
	MessageLimit uint          `json:"messageLimit"`
	Unbounded    bool          `json:"unlimited"`
	Window       time.Duration `json:"window"`
}

// PerHour is the admitted rate used to order plans by restrictiveness.
func (p Plan) PerHour() float64 {
	if p.Window <= 0 {
		return 0
	}
	return float64(p.MessageLimit) / p.Window.Hours()
}

type PlanCatalog interface {
	Lookup(tier string) Plan
	Plans() []Plan
}

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Indefinite bool
	Reason     string
	Fault      error
}

type Admitter interface {
	Admit(ctx context.Context, identity string, plan Plan) Decision
}

type QuotaStatus struct {
	Identity  string
	Plan      Plan
	Used      uint
	Remaining uint
	Blocked   bool
	ResetIn   time.Duration
	LastSeen  time.Time
}

type QuotaReporter interface {
	Status(ctx context.Context, identity string, plan Plan) (QuotaStatus, error)
}

// QuotaRecord is the per-identity usage state kept in the user_limits collection.
// Timestamps are stored as Unix milliseconds.
type QuotaRecord struct {
	MessageCount uint
	WindowStart  time.Time
	Blocked      bool
	LastSeen     time.Time
}

type quotaRecordJSON struct {
	MessageCount uint  `json:"messageCount"`
	LastReset    int64 `json:"lastReset"`
	IsBlocked    bool  `json:"isBlocked"`
	LastActivity int64 `json:"lastActivity"`
}

func (r QuotaRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(quotaRecordJSON{
		MessageCount: r.MessageCount,
		LastReset:    unixMilli(r.WindowStart),
		IsBlocked:    r.Blocked,
		LastActivity: unixMilli(r.LastSeen),
	})
}

func (r *QuotaRecord) UnmarshalJSON(data []byte) error {
	var w quotaRecordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.MessageCount = w.MessageCount
	r.Blocked = w.IsBlocked
	r.WindowStart = fromMilli(w.LastReset)
	r.LastSeen = fromMilli(w.LastActivity)
	return nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
