package op

import (
	"context"
	"math"
	"testing"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
)

func clearStats(t *testing.T) {
	t.Helper()
	if err := db.GetDB().Exec("DELETE FROM stats").Error; err != nil {
		t.Fatalf("clearing stats: %v", err)
	}
	if err := db.GetDB().Exec("DELETE FROM meta").Error; err != nil {
		t.Fatalf("clearing meta: %v", err)
	}
}

func TestStatsApplyBatch_CreateThenMerge(t *testing.T) {
	clearStats(t)
	ctx := context.Background()

	first := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, Tokens: 100, RequestCount: 2, Quota: 0.5, AvgLatency: 100},
	}
	if err := StatsApplyBatch(ctx, first, 50); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	second := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, Tokens: 40, RequestCount: 3, Quota: 0.25, ErrorCount: 1, AvgLatency: 200},
	}
	if err := StatsApplyBatch(ctx, second, 80); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	stats, err := StatsList(ctx, StatFilter{})
	if err != nil {
		t.Fatalf("listing stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected one bucket, got %d", len(stats))
	}
	got := stats[0]
	if got.Tokens != 140 || got.RequestCount != 5 || got.ErrorCount != 1 {
		t.Errorf("unexpected totals: %+v", got)
	}
	// (100*2 + 200*3) / 5
	if math.Abs(got.AvgLatency-160) > 1e-9 {
		t.Errorf("expected avg latency 160, got %v", got.AvgLatency)
	}
	if math.Abs(got.Quota-0.75) > 1e-9 {
		t.Errorf("expected quota 0.75, got %v", got.Quota)
	}

	cursor, err := CursorGet(ctx)
	if err != nil {
		t.Fatalf("reading cursor: %v", err)
	}
	if cursor != 80 {
		t.Errorf("expected cursor 80, got %d", cursor)
	}
}

func TestStatsApplyBatch_DistinctBuckets(t *testing.T) {
	clearStats(t)
	ctx := context.Background()

	batch := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, RequestCount: 1, AvgLatency: 50},
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 7200, RequestCount: 1, AvgLatency: 60},
		{ChannelID: 2, ModelName: "claude", Hour: 3600, RequestCount: 1, AvgLatency: 70},
	}
	if err := StatsApplyBatch(ctx, batch, 3); err != nil {
		t.Fatalf("applying batch: %v", err)
	}

	stats, err := StatsList(ctx, StatFilter{})
	if err != nil {
		t.Fatalf("listing stats: %v", err)
	}
	if len(stats) != 3 {
		t.Errorf("expected 3 buckets, got %d", len(stats))
	}
}

func TestStatsApplyBatch_FailedCommitRollsBack(t *testing.T) {
	clearStats(t)
	ctx := context.Background()

	seed := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, Tokens: 10, RequestCount: 1, AvgLatency: 100},
	}
	if err := StatsApplyBatch(ctx, seed, 10); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	// A dead context fails the transaction; neither the buckets nor the
	// cursor may move, so the next cycle replays the same range.
	dead, cancel := context.WithCancel(context.Background())
	cancel()
	batch := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, Tokens: 99, RequestCount: 9, AvgLatency: 900},
	}
	if err := StatsApplyBatch(dead, batch, 20); err == nil {
		t.Fatal("expected the canceled transaction to fail")
	}

	stats, err := StatsList(ctx, StatFilter{})
	if err != nil {
		t.Fatalf("listing stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Tokens != 10 || stats[0].RequestCount != 1 {
		t.Errorf("failed commit must leave sums untouched, got %+v", stats)
	}
	cursor, err := CursorGet(ctx)
	if err != nil {
		t.Fatalf("reading cursor: %v", err)
	}
	if cursor != 10 {
		t.Errorf("failed commit must leave the cursor untouched, got %d", cursor)
	}

	// Replaying the same batch on a live context lands exactly once.
	if err := StatsApplyBatch(ctx, batch, 20); err != nil {
		t.Fatalf("replay: %v", err)
	}
	summary, err := StatsSummarize(ctx, StatFilter{})
	if err != nil {
		t.Fatalf("summarizing: %v", err)
	}
	if summary.Tokens != 109 || summary.RequestCount != 10 {
		t.Errorf("replay must land exactly once, got %+v", summary)
	}
}

func TestStatsSummarize_WeightedLatency(t *testing.T) {
	clearStats(t)
	ctx := context.Background()

	batch := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, Tokens: 10, RequestCount: 2, AvgLatency: 100},
		{ChannelID: 2, ModelName: "claude", Hour: 3600, Tokens: 20, RequestCount: 8, ErrorCount: 2, AvgLatency: 300},
	}
	if err := StatsApplyBatch(ctx, batch, 10); err != nil {
		t.Fatalf("applying batch: %v", err)
	}

	summary, err := StatsSummarize(ctx, StatFilter{})
	if err != nil {
		t.Fatalf("summarizing: %v", err)
	}
	if summary.Tokens != 30 || summary.RequestCount != 10 || summary.ErrorCount != 2 {
		t.Errorf("unexpected totals: %+v", summary)
	}
	// (100*2 + 300*8) / 10
	if math.Abs(summary.AvgLatency-260) > 1e-9 {
		t.Errorf("expected weighted latency 260, got %v", summary.AvgLatency)
	}
}

func TestStatsSummarize_EmptyWindow(t *testing.T) {
	clearStats(t)

	summary, err := StatsSummarize(context.Background(), StatFilter{Start: 1, End: 2})
	if err != nil {
		t.Fatalf("summarizing empty window: %v", err)
	}
	if summary.RequestCount != 0 || summary.AvgLatency != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}

func TestStatsSummarize_WindowBounds(t *testing.T) {
	clearStats(t)
	ctx := context.Background()

	batch := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, RequestCount: 1, AvgLatency: 10},
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 7200, RequestCount: 1, AvgLatency: 10},
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 10800, RequestCount: 1, AvgLatency: 10},
	}
	if err := StatsApplyBatch(ctx, batch, 3); err != nil {
		t.Fatalf("applying batch: %v", err)
	}

	// Both bounds are inclusive on the bucket start.
	summary, err := StatsSummarize(ctx, StatFilter{Start: 3600, End: 7200})
	if err != nil {
		t.Fatalf("summarizing: %v", err)
	}
	if summary.RequestCount != 2 {
		t.Errorf("expected 2 requests in window, got %d", summary.RequestCount)
	}
}

func TestStatsGroupBy(t *testing.T) {
	clearStats(t)
	ctx := context.Background()

	batch := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: 3600, Tokens: 100, RequestCount: 1, AvgLatency: 10},
		{ChannelID: 1, ModelName: "claude", Hour: 3600, Tokens: 50, RequestCount: 1, AvgLatency: 10},
		{ChannelID: 2, ModelName: "gpt-4o", Hour: 3600, Tokens: 300, RequestCount: 1, AvgLatency: 10},
	}
	if err := StatsApplyBatch(ctx, batch, 3); err != nil {
		t.Fatalf("applying batch: %v", err)
	}

	rows, err := StatsGroupBy(ctx, "model_name", StatFilter{}, 0)
	if err != nil {
		t.Fatalf("grouping: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rows))
	}
	if rows[0].Name != "gpt-4o" || rows[0].Tokens != 400 {
		t.Errorf("expected gpt-4o with 400 tokens first, got %+v", rows[0])
	}

	if _, err := StatsGroupBy(ctx, "quota; DROP TABLE stats", StatFilter{}, 0); err == nil {
		t.Error("expected error for unsupported group column")
	}
}
