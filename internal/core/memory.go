package core

import "context"

type Memory interface {
	BuildContext(ctx context.Context, accountID string, excludeSessionID int64, maxSessions int) string
}
