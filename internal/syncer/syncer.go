// Package syncer incrementally folds gateway usage logs into hourly
// aggregate buckets.
package syncer

import (
	"context"
	"sort"
	"time"

	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/source"
	"github.com/bestruirui/argus/internal/utils/log"
)

const DefaultBatchSize = 1000

type Syncer struct {
	batchSize int
}

func New(batchSize int) *Syncer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Syncer{batchSize: batchSize}
}

// Sync runs one incremental cycle: read the watermark, fetch the next bounded
// batch of logs past it, fold them into hourly buckets and commit buckets plus
// the new watermark as one transaction. Returns the number of records
// processed. On any error nothing is committed and the watermark stays put, so
// the next cycle retries the same range.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	cursor, err := op.CursorGet(ctx)
	if err != nil {
		return 0, err
	}

	logs, err := source.FetchLogsAfter(ctx, cursor, s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(logs) == 0 {
		return 0, nil
	}

	buckets := aggregate(logs)
	lastID := logs[len(logs)-1].ID
	if err := op.StatsApplyBatch(ctx, buckets, lastID); err != nil {
		return 0, err
	}

	log.Debugf("syncer: folded %d logs into %d buckets, cursor -> %d", len(logs), len(buckets), lastID)
	return len(logs), nil
}

type bucketKey struct {
	channelID int
	modelName string
	hour      int64
}

// aggregate partitions a batch by (channel, model, hour). Error records carry
// zero tokens but still count toward request_count, so the bucket's error rate
// stays honest.
func aggregate(logs []model.UsageLog) []model.HourlyStat {
	type accumulator struct {
		tokens     int64
		requests   int64
		quota      float64
		errors     int64
		latencySum int64
	}

	acc := make(map[bucketKey]*accumulator)
	for _, entry := range logs {
		key := bucketKey{
			channelID: entry.ChannelID,
			modelName: entry.ModelName,
			hour:      entry.CreatedAt / 3600 * 3600,
		}
		a := acc[key]
		if a == nil {
			a = &accumulator{}
			acc[key] = a
		}
		a.tokens += entry.PromptTokens + entry.CompletionTokens
		a.requests++
		a.quota += float64(entry.Quota)
		if entry.Type == model.LogTypeError {
			a.errors++
		}
		a.latencySum += entry.UseTime
	}

	buckets := make([]model.HourlyStat, 0, len(acc))
	for key, a := range acc {
		buckets = append(buckets, model.HourlyStat{
			ChannelID:    key.channelID,
			ModelName:    key.modelName,
			Hour:         key.hour,
			Tokens:       a.tokens,
			RequestCount: a.requests,
			Quota:        a.quota,
			ErrorCount:   a.errors,
			AvgLatency:   float64(a.latencySum) / float64(a.requests),
		})
	}

	// Stable write order keeps transactions deterministic.
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].ChannelID != buckets[j].ChannelID {
			return buckets[i].ChannelID < buckets[j].ChannelID
		}
		if buckets[i].ModelName != buckets[j].ModelName {
			return buckets[i].ModelName < buckets[j].ModelName
		}
		return buckets[i].Hour < buckets[j].Hour
	})
	return buckets
}

// SnapshotChannels captures the current status of every gateway channel into
// channel_snapshots.
func SnapshotChannels(ctx context.Context) error {
	channels, err := source.ChannelList(ctx)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return nil
	}
	now := time.Now().Unix()
	snapshots := make([]model.ChannelSnapshot, 0, len(channels))
	for _, ch := range channels {
		snapshots = append(snapshots, model.ChannelSnapshot{
			ChannelID:    ch.ID,
			Status:       ch.Status,
			ResponseTime: ch.ResponseTime,
			Balance:      ch.Balance,
			SnapshotTime: now,
		})
	}
	return op.SnapshotAddBatch(ctx, snapshots)
}
