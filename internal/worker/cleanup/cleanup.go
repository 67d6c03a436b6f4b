// Package cleanup はトークン失効リストの自動削除ジョブを提供する。
// 保持期間（デフォルト7日）を超過したエントリを定期バッチで削除する。
// 失効リストのトークンは最長のTTL（リフレッシュトークンの5日）を過ぎれば
// 署名検証で弾かれるため、期限切れエントリを持ち続ける必要はない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// BlacklistSweeper は失効リストの削除に必要なインターフェース。
// repository.BlacklistRepositoryの部分集合として定義する。
type BlacklistSweeper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は保持期間を超過した失効リストエントリの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	blacklist     BlacklistSweeper
	logger        *slog.Logger
	RetentionDays int // 失効エントリの保持日数（デフォルト: 7）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は7日。
func NewCleanupJob(blacklist BlacklistSweeper, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		blacklist:     blacklist,
		logger:        logger,
		RetentionDays: 7,
	}
}

// Run は保持期間を超過した失効リストエントリを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	cutoff := time.Now().UTC().AddDate(0, 0, -j.RetentionDays)

	deletedCount, err := j.blacklist.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("token blacklist cleanup failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("failed to clean up token blacklist: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("token blacklist cleanup finished",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
