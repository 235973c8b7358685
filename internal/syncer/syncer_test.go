package syncer

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/source"
)

func TestMain(m *testing.M) {
	if err := db.InitDB("file:syncertest?mode=memory&cache=shared", false); err != nil {
		panic(err)
	}
	if err := source.Init("sqlite", "file:syncersrc?mode=memory&cache=shared", false); err != nil {
		panic(err)
	}
	if err := source.GetDB().AutoMigrate(&model.UsageLog{}, &model.GatewayChannel{}); err != nil {
		panic(err)
	}
	code := m.Run()
	source.Close()
	db.Close()
	os.Exit(code)
}

func resetAll(t *testing.T) {
	t.Helper()
	for _, stmt := range []string{
		"DELETE FROM stats", "DELETE FROM meta", "DELETE FROM channel_snapshots",
	} {
		if err := db.GetDB().Exec(stmt).Error; err != nil {
			t.Fatalf("reset: %v", err)
		}
	}
	for _, stmt := range []string{"DELETE FROM logs", "DELETE FROM channels"} {
		if err := source.GetDB().Exec(stmt).Error; err != nil {
			t.Fatalf("reset source: %v", err)
		}
	}
}

func seedLogs(t *testing.T, logs []model.UsageLog) {
	t.Helper()
	if err := source.GetDB().Create(&logs).Error; err != nil {
		t.Fatalf("seeding logs: %v", err)
	}
}

func TestAggregate(t *testing.T) {
	logs := []model.UsageLog{
		{ID: 1, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7300, PromptTokens: 10, CompletionTokens: 5, Quota: 3, UseTime: 100, Type: model.LogTypeConsume},
		{ID: 2, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7400, PromptTokens: 20, CompletionTokens: 5, Quota: 4, UseTime: 300, Type: model.LogTypeConsume},
		{ID: 3, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7500, UseTime: 50, Type: model.LogTypeError},
		{ID: 4, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 10900, PromptTokens: 1, Type: model.LogTypeConsume},
		{ID: 5, ChannelID: 2, ModelName: "claude", CreatedAt: 7300, PromptTokens: 7, Type: model.LogTypeConsume},
	}

	buckets := aggregate(logs)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}

	// Sorted by channel, model, hour.
	first := buckets[0]
	if first.ChannelID != 1 || first.Hour != 7200 {
		t.Fatalf("unexpected first bucket: %+v", first)
	}
	if first.RequestCount != 3 {
		t.Errorf("error records must count as requests: got %d", first.RequestCount)
	}
	if first.Tokens != 40 {
		t.Errorf("expected 40 tokens, got %d", first.Tokens)
	}
	if first.ErrorCount != 1 {
		t.Errorf("expected 1 error, got %d", first.ErrorCount)
	}
	// (100 + 300 + 50) / 3
	if math.Abs(first.AvgLatency-150) > 1e-9 {
		t.Errorf("expected avg latency 150, got %v", first.AvgLatency)
	}
	if math.Abs(first.Quota-7) > 1e-9 {
		t.Errorf("expected quota 7, got %v", first.Quota)
	}

	if buckets[1].Hour != 10800 {
		t.Errorf("expected second bucket at hour 10800, got %d", buckets[1].Hour)
	}
	if buckets[2].ChannelID != 2 || buckets[2].ModelName != "claude" {
		t.Errorf("unexpected third bucket: %+v", buckets[2])
	}
}

func TestSync_BatchesAndCursor(t *testing.T) {
	resetAll(t)
	ctx := context.Background()

	logs := make([]model.UsageLog, 0, 25)
	for i := 1; i <= 25; i++ {
		logs = append(logs, model.UsageLog{
			ID: int64(i), ChannelID: 1, ModelName: "gpt-4o",
			CreatedAt: 7200, PromptTokens: 1, UseTime: 100, Type: model.LogTypeConsume,
		})
	}
	seedLogs(t, logs)

	s := New(10)
	for cycle, want := range []int{10, 10, 5, 0} {
		n, err := s.Sync(ctx)
		if err != nil {
			t.Fatalf("cycle %d: %v", cycle, err)
		}
		if n != want {
			t.Errorf("cycle %d: expected %d records, got %d", cycle, want, n)
		}
	}

	cursor, err := op.CursorGet(ctx)
	if err != nil {
		t.Fatalf("reading cursor: %v", err)
	}
	if cursor != 25 {
		t.Errorf("expected cursor 25, got %d", cursor)
	}

	summary, err := op.StatsSummarize(ctx, op.StatFilter{})
	if err != nil {
		t.Fatalf("summarizing: %v", err)
	}
	if summary.RequestCount != 25 || summary.Tokens != 25 {
		t.Errorf("expected 25 requests and tokens, got %+v", summary)
	}
}

func TestSync_SkipsOtherLogTypes(t *testing.T) {
	resetAll(t)
	ctx := context.Background()

	seedLogs(t, []model.UsageLog{
		{ID: 1, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7200, Type: 1}, // topup, not usage
		{ID: 2, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7200, PromptTokens: 1, Type: model.LogTypeConsume},
		{ID: 3, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7200, Type: model.LogTypeError},
	})

	n, err := New(0).Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 usage records, got %d", n)
	}

	summary, err := op.StatsSummarize(ctx, op.StatFilter{})
	if err != nil {
		t.Fatalf("summarizing: %v", err)
	}
	if summary.RequestCount != 2 || summary.ErrorCount != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestSync_MergesAcrossCycles(t *testing.T) {
	resetAll(t)
	ctx := context.Background()

	// Two cycles land in the same (channel, model, hour) bucket; the second
	// must fold into the first with a request-weighted latency.
	seedLogs(t, []model.UsageLog{
		{ID: 1, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7200, UseTime: 100, Type: model.LogTypeConsume},
		{ID: 2, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7210, UseTime: 100, Type: model.LogTypeConsume},
	})

	s := New(0)
	if _, err := s.Sync(ctx); err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	seedLogs(t, []model.UsageLog{
		{ID: 3, ChannelID: 1, ModelName: "gpt-4o", CreatedAt: 7220, UseTime: 400, Type: model.LogTypeConsume},
	})
	if _, err := s.Sync(ctx); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	stats, err := op.StatsList(ctx, op.StatFilter{})
	if err != nil {
		t.Fatalf("listing stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected one bucket, got %d", len(stats))
	}
	// (100*2 + 400*1) / 3
	if math.Abs(stats[0].AvgLatency-200) > 1e-9 {
		t.Errorf("expected avg latency 200, got %v", stats[0].AvgLatency)
	}
	if stats[0].RequestCount != 3 {
		t.Errorf("expected 3 requests, got %d", stats[0].RequestCount)
	}
}

func TestSync_EmptySource(t *testing.T) {
	resetAll(t)

	n, err := New(0).Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 records, got %d", n)
	}

	cursor, err := op.CursorGet(context.Background())
	if err != nil {
		t.Fatalf("reading cursor: %v", err)
	}
	if cursor != 0 {
		t.Errorf("cursor must stay put on an empty cycle, got %d", cursor)
	}
}

func TestSnapshotChannels(t *testing.T) {
	resetAll(t)
	ctx := context.Background()

	channels := []model.GatewayChannel{
		{ID: 1, Name: "openai", Status: model.ChannelStatusEnabled, ResponseTime: 120, Balance: 10},
		{ID: 2, Name: "backup", Status: model.ChannelStatusAutoDisabled, ResponseTime: 0, Balance: 0},
	}
	if err := source.GetDB().Create(&channels).Error; err != nil {
		t.Fatalf("seeding channels: %v", err)
	}

	if err := SnapshotChannels(ctx); err != nil {
		t.Fatalf("snapshotting: %v", err)
	}

	snapshots, err := op.SnapshotList(ctx, nil, 0, 0, 0)
	if err != nil {
		t.Fatalf("listing snapshots: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
}
