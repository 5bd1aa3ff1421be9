package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

type AnalyticsManager struct {
	queries Querier
}

func NewAnalyticsManager(queries Querier) *AnalyticsManager {
	return &AnalyticsManager{queries: queries}
}

func (a *AnalyticsManager) IncrementGamesCreatedCount(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.IncrementGamesCreatedCount(ctx, serverIpNet)
}

// A finished game bumps the finished counter and adds its shots.
func (a *AnalyticsManager) RecordFinishedGame(ctx context.Context, serverIpNet pqtype.Inet, shots int) error {
	if err := a.queries.IncrementGamesFinishedCount(ctx, serverIpNet); err != nil {
		return err
	}
	return a.queries.AddShotsFiredCount(ctx, AddShotsFiredCountParams{ServerIp: serverIpNet, ShotsFired: int64(shots)})
}

// Shots of a game that ended without clearing the fleet,
// either dropped by its client or replaced by a rematch.
func (a *AnalyticsManager) RecordAbandonedGame(ctx context.Context, serverIpNet pqtype.Inet, shots int) error {
	if shots == 0 {
		return nil
	}
	return a.queries.AddShotsFiredCount(ctx, AddShotsFiredCountParams{ServerIp: serverIpNet, ShotsFired: int64(shots)})
}

func (a *AnalyticsManager) GetGamesCreatedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.GetGamesCreatedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetGamesFinishedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.GetGamesFinishedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetShotsFiredCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.GetShotsFiredCount(ctx, serverIpNet)
}
