package op

import (
	"context"
	"time"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/utils/log"
)

// CleanOldData prunes aggregate rows past the retention window. Alerts and
// their rules are never pruned, only firings and observability rows.
func CleanOldData(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour).Unix()
	dbConn := db.GetDB().WithContext(ctx)

	result := dbConn.Where("hour < ?", cutoff).Delete(&model.HourlyStat{})
	if result.Error != nil {
		return result.Error
	}
	pruned := result.RowsAffected

	result = dbConn.Where("snapshot_time < ?", cutoff).Delete(&model.ChannelSnapshot{})
	if result.Error != nil {
		return result.Error
	}
	pruned += result.RowsAffected

	result = dbConn.Where("triggered_at < ?", cutoff).Delete(&model.AlertHistory{})
	if result.Error != nil {
		return result.Error
	}
	pruned += result.RowsAffected

	if pruned > 0 {
		log.Infof("retention: pruned %d rows older than %d days", pruned, retentionDays)
	}
	return nil
}
