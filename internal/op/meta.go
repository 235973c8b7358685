package op

import (
	"context"
	"errors"
	"strconv"

	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func MetaGet(ctx context.Context, key string) (string, error) {
	var meta model.Meta
	result := db.GetDB().WithContext(ctx).First(&meta, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return meta.Value, nil
}

func MetaSet(ctx context.Context, key, value string) error {
	return metaSet(db.GetDB().WithContext(ctx), key, value)
}

func metaSet(tx *gorm.DB, key, value string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&model.Meta{Key: key, Value: value}).Error
}

// CursorGet returns the sync watermark, 0 when absent.
func CursorGet(ctx context.Context) (int64, error) {
	value, err := MetaGet(ctx, model.MetaKeyLastSyncedID)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return id, nil
}
