package op

import (
	"context"
	"time"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
	"gorm.io/gorm"
)

func AlertList(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := db.GetDB().WithContext(ctx).Order("id DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func AlertListEnabled(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := db.GetDB().WithContext(ctx).Where("enabled = ?", true).Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func AlertGet(ctx context.Context, id int) (model.Alert, error) {
	var alert model.Alert
	err := db.GetDB().WithContext(ctx).First(&alert, id).Error
	return alert, err
}

func AlertCreate(ctx context.Context, alert *model.Alert) error {
	alert.CreatedAt = time.Now().Unix()
	return db.GetDB().WithContext(ctx).Create(alert).Error
}

func AlertUpdate(ctx context.Context, alert *model.Alert) error {
	return db.GetDB().WithContext(ctx).Model(&model.Alert{ID: alert.ID}).
		Select("name", "rule_json", "enabled", "start_time", "end_time",
			"notify_telegram", "notify_feishu", "notify_wecom", "trigger_action").
		Updates(alert).Error
}

func AlertToggle(ctx context.Context, id int, enabled bool) error {
	return db.GetDB().WithContext(ctx).Model(&model.Alert{ID: id}).
		Update("enabled", enabled).Error
}

func AlertDelete(ctx context.Context, id int) error {
	return db.GetDB().WithContext(ctx).Delete(&model.Alert{}, id).Error
}

// AlertMarkTriggered records one firing on the rule itself: cooldown anchor,
// last observed value and the lifetime trigger counter.
func AlertMarkTriggered(ctx context.Context, id int, value float64, triggeredAtMs int64) error {
	return db.GetDB().WithContext(ctx).Model(&model.Alert{ID: id}).
		Updates(map[string]interface{}{
			"last_triggered": triggeredAtMs,
			"last_value":     value,
			"trigger_count":  gorm.Expr("trigger_count + 1"),
		}).Error
}

func HistoryAppend(ctx context.Context, entry *model.AlertHistory) error {
	return db.GetDB().WithContext(ctx).Create(entry).Error
}

func HistoryList(ctx context.Context, limit int, alertID *int) ([]model.AlertHistory, error) {
	tx := db.GetDB().WithContext(ctx).Model(&model.AlertHistory{})
	if alertID != nil {
		tx = tx.Where("alert_id = ?", *alertID)
	}
	if limit <= 0 {
		limit = 100
	}
	var history []model.AlertHistory
	if err := tx.Order("triggered_at DESC").Limit(limit).Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}
