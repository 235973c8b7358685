package op

import (
	"context"
	"errors"
	"strconv"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
	"gorm.io/gorm"
)

// StatsApplyBatch folds one sync batch into the stats table and advances the
// cursor, all inside a single transaction. A failure anywhere rolls the whole
// cycle back: sums untouched, cursor untouched, so the next cycle replays the
// same id range without double counting.
func StatsApplyBatch(ctx context.Context, buckets []model.HourlyStat, lastID int64) error {
	return db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, delta := range buckets {
			var current model.HourlyStat
			result := tx.Where("channel_id = ? AND model_name = ? AND hour = ?",
				delta.ChannelID, delta.ModelName, delta.Hour).First(&current)
			if result.Error != nil {
				if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
					return result.Error
				}
				if err := tx.Create(&delta).Error; err != nil {
					return err
				}
				continue
			}
			current.Merge(delta)
			if err := tx.Where("channel_id = ? AND model_name = ? AND hour = ?",
				delta.ChannelID, delta.ModelName, delta.Hour).
				Select("tokens", "request_count", "quota", "error_count", "avg_latency").
				Updates(&current).Error; err != nil {
				return err
			}
		}
		return metaSet(tx, model.MetaKeyLastSyncedID, strconv.FormatInt(lastID, 10))
	})
}

// StatFilter narrows stats queries to a window and an optional target.
type StatFilter struct {
	ChannelID *int
	ModelName string
	Start     int64 // inclusive bucket start
	End       int64 // inclusive, 0 means unbounded
}

func (f StatFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.Start > 0 {
		tx = tx.Where("hour >= ?", f.Start)
	}
	if f.End > 0 {
		tx = tx.Where("hour <= ?", f.End)
	}
	if f.ChannelID != nil {
		tx = tx.Where("channel_id = ?", *f.ChannelID)
	}
	if f.ModelName != "" {
		tx = tx.Where("model_name = ?", f.ModelName)
	}
	return tx
}

func StatsList(ctx context.Context, filter StatFilter) ([]model.HourlyStat, error) {
	var stats []model.HourlyStat
	tx := filter.apply(db.GetDB().WithContext(ctx).Model(&model.HourlyStat{}))
	if err := tx.Order("hour ASC").Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// StatsSummarize rolls the window up into totals. The latency column is a
// per-bucket mean, so the rollup weights it by request count.
func StatsSummarize(ctx context.Context, filter StatFilter) (model.StatSummary, error) {
	var summary model.StatSummary
	tx := filter.apply(db.GetDB().WithContext(ctx).Model(&model.HourlyStat{}))
	err := tx.Select(
		"COALESCE(SUM(tokens), 0) AS tokens, " +
			"COALESCE(SUM(request_count), 0) AS request_count, " +
			"COALESCE(SUM(quota), 0) AS quota, " +
			"COALESCE(SUM(error_count), 0) AS error_count, " +
			"COALESCE(SUM(avg_latency * request_count) / NULLIF(SUM(request_count), 0), 0) AS avg_latency").
		Scan(&summary).Error
	return summary, err
}

// StatGroupRow is one line of a grouped analysis query.
type StatGroupRow struct {
	Name         string  `json:"name"`
	Tokens       int64   `json:"tokens"`
	RequestCount int64   `json:"request_count"`
	Quota        float64 `json:"quota"`
	ErrorCount   int64   `json:"error_count"`
	AvgLatency   float64 `json:"avg_latency"`
}

// StatsGroupBy aggregates the window by channel_id or model_name.
func StatsGroupBy(ctx context.Context, column string, filter StatFilter, limit int) ([]StatGroupRow, error) {
	if column != "channel_id" && column != "model_name" {
		return nil, errors.New("unsupported group column")
	}
	var rows []StatGroupRow
	tx := filter.apply(db.GetDB().WithContext(ctx).Model(&model.HourlyStat{}))
	tx = tx.Select(column + " AS name, " +
		"SUM(tokens) AS tokens, " +
		"SUM(request_count) AS request_count, " +
		"SUM(quota) AS quota, " +
		"SUM(error_count) AS error_count, " +
		"COALESCE(SUM(avg_latency * request_count) / NULLIF(SUM(request_count), 0), 0) AS avg_latency").
		Group(column).
		Order("tokens DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ErrorSummaryRow ranks (channel, model) pairs by error volume.
type ErrorSummaryRow struct {
	ChannelID    int    `json:"channel_id"`
	ModelName    string `json:"model_name"`
	ErrorCount   int64  `json:"error_count"`
	RequestCount int64  `json:"request_count"`
}

func StatsErrorSummary(ctx context.Context, filter StatFilter, limit int) ([]ErrorSummaryRow, error) {
	var rows []ErrorSummaryRow
	tx := filter.apply(db.GetDB().WithContext(ctx).Model(&model.HourlyStat{}))
	err := tx.Select("channel_id, model_name, SUM(error_count) AS error_count, SUM(request_count) AS request_count").
		Where("error_count > 0").
		Group("channel_id, model_name").
		Order("error_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LatencyTrendRow is one hour in the rolled-up latency/throughput trend.
type LatencyTrendRow struct {
	Hour         int64   `json:"hour"`
	RequestCount int64   `json:"request_count"`
	Tokens       int64   `json:"tokens"`
	AvgLatency   float64 `json:"avg_latency"`
}

func StatsLatencyTrend(ctx context.Context, filter StatFilter) ([]LatencyTrendRow, error) {
	var rows []LatencyTrendRow
	tx := filter.apply(db.GetDB().WithContext(ctx).Model(&model.HourlyStat{}))
	err := tx.Select("hour, SUM(request_count) AS request_count, SUM(tokens) AS tokens, " +
		"COALESCE(SUM(avg_latency * request_count) / NULLIF(SUM(request_count), 0), 0) AS avg_latency").
		Group("hour").
		Order("hour ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// StatsActiveModelCount counts distinct model names in the window.
func StatsActiveModelCount(ctx context.Context, filter StatFilter) (int64, error) {
	var count int64
	tx := filter.apply(db.GetDB().WithContext(ctx).Model(&model.HourlyStat{}))
	err := tx.Distinct("model_name").Count(&count).Error
	return count, err
}
