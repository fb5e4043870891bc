package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/pkg/cache"
)

const managedTeamsKey = "teams:manager:"

// cachedTeamRepository caches manager team lists. Every other call passes
// through; creating a team drops its manager's entry.
type cachedTeamRepository struct {
	TeamRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTeamRepository wraps inner with a read-through cache for
// ListByManagerEmail. A nil cache or non-positive ttl returns inner unchanged.
func NewCachedTeamRepository(inner TeamRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) TeamRepository {
	if c == nil || ttl <= 0 {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedTeamRepository{TeamRepository: inner, cache: c, ttl: ttl, logger: logger}
}

func (r *cachedTeamRepository) ListByManagerEmail(ctx context.Context, managerEmail string) ([]domain.Team, error) {
	key := managedTeamsKey + domain.NormalizeEmail(managerEmail)

	cached, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var teams []domain.Team
		if err := sonic.UnmarshalString(cached, &teams); err == nil {
			return teams, nil
		}
		r.logger.Warn("discarding undecodable team cache entry", zap.String("key", key))
	case !errors.Is(err, cache.ErrMiss):
		r.logger.Warn("team cache read failed", zap.String("key", key), zap.Error(err))
	}

	teams, err := r.TeamRepository.ListByManagerEmail(ctx, managerEmail)
	if err != nil {
		return nil, err
	}

	encoded, err := sonic.MarshalString(teams)
	if err != nil {
		r.logger.Warn("team cache encode failed", zap.Error(err))
		return teams, nil
	}
	if err := r.cache.Set(ctx, key, encoded, r.ttl); err != nil {
		r.logger.Warn("team cache write failed", zap.String("key", key), zap.Error(err))
	}
	return teams, nil
}

func (r *cachedTeamRepository) Create(ctx context.Context, team *domain.Team) error {
	if err := r.TeamRepository.Create(ctx, team); err != nil {
		return err
	}
	if err := r.cache.Del(ctx, managedTeamsKey+domain.NormalizeEmail(team.ManagerEmail)); err != nil {
		r.logger.Warn("team cache invalidation failed", zap.Error(err))
	}
	return nil
}
