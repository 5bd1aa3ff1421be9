package sqlc

import (
	"context"
	"time"
)

const (
	QuerierCtxTimeout = time.Second * 10
)

// DbManager groups the managers the server talks to
// and bounds every call with a timeout.
type DbManager struct {
	Analytics  *AnalyticsManager
	ctxTimeout time.Duration
}

func NewDbManager(queries Querier) *DbManager {
	return &DbManager{
		Analytics:  NewAnalyticsManager(queries),
		ctxTimeout: QuerierCtxTimeout,
	}
}

// Runs query with a context that expires after QuerierCtxTimeout.
func (dbm *DbManager) RunWithTimeout(query func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbm.ctxTimeout)
	defer cancel()

	return query(ctx)
}
