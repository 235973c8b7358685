package op

import (
	"context"
	"testing"
	"time"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
)

func clearAlerts(t *testing.T) {
	t.Helper()
	if err := db.GetDB().Exec("DELETE FROM alerts").Error; err != nil {
		t.Fatalf("clearing alerts: %v", err)
	}
	if err := db.GetDB().Exec("DELETE FROM alert_history").Error; err != nil {
		t.Fatalf("clearing alert history: %v", err)
	}
}

func TestAlertMarkTriggered(t *testing.T) {
	clearAlerts(t)
	ctx := context.Background()

	alert := model.Alert{
		Name:    "errors high",
		Rule:    `{"alertType":"error_rate","threshold":5,"period":"24"}`,
		Enabled: true,
	}
	if err := AlertCreate(ctx, &alert); err != nil {
		t.Fatalf("creating alert: %v", err)
	}

	nowMs := time.Now().UnixMilli()
	if err := AlertMarkTriggered(ctx, alert.ID, 7.5, nowMs); err != nil {
		t.Fatalf("marking triggered: %v", err)
	}
	if err := AlertMarkTriggered(ctx, alert.ID, 9.0, nowMs+1000); err != nil {
		t.Fatalf("marking triggered again: %v", err)
	}

	got, err := AlertGet(ctx, alert.ID)
	if err != nil {
		t.Fatalf("reading alert back: %v", err)
	}
	if got.TriggerCount != 2 {
		t.Errorf("expected trigger count 2, got %d", got.TriggerCount)
	}
	if got.LastValue != 9.0 {
		t.Errorf("expected last value 9.0, got %v", got.LastValue)
	}
	if got.LastTriggered != nowMs+1000 {
		t.Errorf("expected last triggered %d, got %d", nowMs+1000, got.LastTriggered)
	}
}

func TestAlertToggleAndListEnabled(t *testing.T) {
	clearAlerts(t)
	ctx := context.Background()

	alert := model.Alert{Name: "toggle me", Rule: `{"threshold":1,"period":"24"}`, Enabled: true}
	if err := AlertCreate(ctx, &alert); err != nil {
		t.Fatalf("creating alert: %v", err)
	}

	enabled, err := AlertListEnabled(ctx)
	if err != nil {
		t.Fatalf("listing enabled: %v", err)
	}
	if len(enabled) != 1 {
		t.Fatalf("expected 1 enabled alert, got %d", len(enabled))
	}

	if err := AlertToggle(ctx, alert.ID, false); err != nil {
		t.Fatalf("toggling: %v", err)
	}
	enabled, err = AlertListEnabled(ctx)
	if err != nil {
		t.Fatalf("listing enabled: %v", err)
	}
	if len(enabled) != 0 {
		t.Errorf("expected no enabled alerts after toggle, got %d", len(enabled))
	}
}

func TestHistoryList_FilterAndLimit(t *testing.T) {
	clearAlerts(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := model.AlertHistory{AlertID: 1, AlertName: "a", TriggeredAt: int64(100 + i), Value: float64(i)}
		if err := HistoryAppend(ctx, &entry); err != nil {
			t.Fatalf("appending history: %v", err)
		}
	}
	other := model.AlertHistory{AlertID: 2, AlertName: "b", TriggeredAt: 999}
	if err := HistoryAppend(ctx, &other); err != nil {
		t.Fatalf("appending history: %v", err)
	}

	alertID := 1
	history, err := HistoryList(ctx, 2, &alertID)
	if err != nil {
		t.Fatalf("listing history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(history))
	}
	// Newest first.
	if history[0].TriggeredAt != 102 {
		t.Errorf("expected newest entry first, got %d", history[0].TriggeredAt)
	}

	all, err := HistoryList(ctx, 0, nil)
	if err != nil {
		t.Fatalf("listing all history: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 rows, got %d", len(all))
	}
}
