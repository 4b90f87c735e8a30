package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/galgamex/fuxiaochen/internal/pkg/timeutil"
	"github.com/galgamex/fuxiaochen/internal/repo"
)

// TokenCleanupJob purges verification tokens past their expiry. Consume
// already deletes stale rows it touches; this catches the ones nobody ever
// tried to use.
type TokenCleanupJob struct {
	tokens *repo.TokenRepo
}

func NewTokenCleanupJob(tokens *repo.TokenRepo) *TokenCleanupJob {
	return &TokenCleanupJob{tokens: tokens}
}

func (j *TokenCleanupJob) Name() string {
	return "token_cleanup"
}

func (j *TokenCleanupJob) Run(ctx context.Context) error {
	if j.tokens == nil {
		return nil
	}
	deleted, err := j.tokens.DeleteExpired(ctx, timeutil.NowUnix())
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("expired tokens purged", zap.Int64("count", deleted))
	}
	return nil
}
