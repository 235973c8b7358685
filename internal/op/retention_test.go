package op

import (
	"context"
	"testing"
	"time"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
)

func TestCleanOldData(t *testing.T) {
	clearStats(t)
	clearAlerts(t)
	if err := db.GetDB().Exec("DELETE FROM channel_snapshots").Error; err != nil {
		t.Fatalf("clearing snapshots: %v", err)
	}
	ctx := context.Background()

	now := time.Now().Unix()
	old := now - 40*24*3600
	recent := now - 3600

	batch := []model.HourlyStat{
		{ChannelID: 1, ModelName: "gpt-4o", Hour: old, RequestCount: 1, AvgLatency: 10},
		{ChannelID: 1, ModelName: "gpt-4o", Hour: recent, RequestCount: 1, AvgLatency: 10},
	}
	if err := StatsApplyBatch(ctx, batch, 2); err != nil {
		t.Fatalf("seeding stats: %v", err)
	}
	snapshots := []model.ChannelSnapshot{
		{ChannelID: 1, Status: 1, SnapshotTime: old},
		{ChannelID: 1, Status: 1, SnapshotTime: recent},
	}
	if err := SnapshotAddBatch(ctx, snapshots); err != nil {
		t.Fatalf("seeding snapshots: %v", err)
	}
	if err := HistoryAppend(ctx, &model.AlertHistory{AlertID: 1, TriggeredAt: old}); err != nil {
		t.Fatalf("seeding history: %v", err)
	}
	if err := HistoryAppend(ctx, &model.AlertHistory{AlertID: 1, TriggeredAt: recent}); err != nil {
		t.Fatalf("seeding history: %v", err)
	}

	if err := CleanOldData(ctx, 30); err != nil {
		t.Fatalf("cleaning: %v", err)
	}

	stats, err := StatsList(ctx, StatFilter{})
	if err != nil {
		t.Fatalf("listing stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Hour != recent {
		t.Errorf("expected only the recent bucket to survive, got %+v", stats)
	}

	kept, err := SnapshotList(ctx, nil, 0, 0, 0)
	if err != nil {
		t.Fatalf("listing snapshots: %v", err)
	}
	if len(kept) != 1 || kept[0].SnapshotTime != recent {
		t.Errorf("expected only the recent snapshot to survive, got %+v", kept)
	}

	history, err := HistoryList(ctx, 0, nil)
	if err != nil {
		t.Fatalf("listing history: %v", err)
	}
	if len(history) != 1 || history[0].TriggeredAt != recent {
		t.Errorf("expected only the recent firing to survive, got %+v", history)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	ctx := context.Background()

	value, err := MetaGet(ctx, "never_written")
	if err != nil {
		t.Fatalf("reading absent key: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value for absent key, got %q", value)
	}

	if err := MetaSet(ctx, "probe", "1"); err != nil {
		t.Fatalf("setting meta: %v", err)
	}
	if err := MetaSet(ctx, "probe", "2"); err != nil {
		t.Fatalf("overwriting meta: %v", err)
	}
	value, err = MetaGet(ctx, "probe")
	if err != nil {
		t.Fatalf("reading meta: %v", err)
	}
	if value != "2" {
		t.Errorf("expected 2, got %q", value)
	}
}
