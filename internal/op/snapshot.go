package op

import (
	"context"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
)

func SnapshotAddBatch(ctx context.Context, snapshots []model.ChannelSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return db.GetDB().WithContext(ctx).Create(&snapshots).Error
}

func SnapshotList(ctx context.Context, channelID *int, start, end int64, limit int) ([]model.ChannelSnapshot, error) {
	tx := db.GetDB().WithContext(ctx).Model(&model.ChannelSnapshot{})
	if channelID != nil {
		tx = tx.Where("channel_id = ?", *channelID)
	}
	if start > 0 {
		tx = tx.Where("snapshot_time >= ?", start)
	}
	if end > 0 {
		tx = tx.Where("snapshot_time <= ?", end)
	}
	if limit <= 0 {
		limit = 500
	}
	var snapshots []model.ChannelSnapshot
	if err := tx.Order("snapshot_time DESC").Limit(limit).Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
