// Package source is the read-side adapter for the external gateway's own
// store. The schema belongs to the gateway; everything here is read-only
// except the circuit breaker, which runs over its own connection.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/bestruirui/argus/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func Init(dbType, dsn string, debug bool) error {
	conn, err := open(dbType, dsn, debug)
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)
	db = conn
	return nil
}

// open dials a gateway store. Gateways deploy on mysql, postgres or sqlite;
// the dialect comes from config, never sniffed.
func open(dbType, dsn string, debug bool) (*gorm.DB, error) {
	gormConfig := gorm.Config{Logger: logger.Discard}
	if debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	switch dbType {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gormConfig)
	case "postgres", "postgresql":
		return gorm.Open(postgres.Open(dsn), &gormConfig)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gormConfig)
	default:
		return nil, fmt.Errorf("unsupported source database type: %s", dbType)
	}
}

func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

// FetchLogsAfter returns up to limit usage logs with id > afterID, success and
// error records only, ascending by id. This is the sync engine's sole read.
func FetchLogsAfter(ctx context.Context, afterID int64, limit int) ([]model.UsageLog, error) {
	var logs []model.UsageLog
	err := db.WithContext(ctx).
		Where("id > ? AND type IN ?", afterID, []int{model.LogTypeConsume, model.LogTypeError}).
		Order("id ASC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func ChannelList(ctx context.Context) ([]model.GatewayChannel, error) {
	var channels []model.GatewayChannel
	if err := db.WithContext(ctx).Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// DisabledChannels returns channels that are manually or automatically
// disabled, the live input of the channel_down rule.
func DisabledChannels(ctx context.Context) ([]model.GatewayChannel, error) {
	var channels []model.GatewayChannel
	err := db.WithContext(ctx).
		Where("status IN ?", []int{model.ChannelStatusManualDisabled, model.ChannelStatusAutoDisabled}).
		Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// LowQuotaTokens returns enabled, non-unlimited credentials whose remaining
// balance is below threshold, the live input of the quota_low rule.
func LowQuotaTokens(ctx context.Context, threshold int64) ([]model.GatewayToken, error) {
	var tokens []model.GatewayToken
	err := db.WithContext(ctx).
		Where("status = ? AND unlimited_quota = ? AND remain_quota < ?",
			model.TokenStatusEnabled, false, threshold).
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func TokenList(ctx context.Context) ([]model.GatewayToken, error) {
	var tokens []model.GatewayToken
	if err := db.WithContext(ctx).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// RealtimeSnapshot aggregates the last 60 seconds of successful traffic.
func RealtimeSnapshot(ctx context.Context) (model.RealtimeStats, error) {
	now := time.Now().Unix()
	since := now - 60
	base := db.WithContext(ctx).Model(&model.UsageLog{}).
		Where("created_at >= ? AND type = ?", since, model.LogTypeConsume)

	var row struct {
		RPM int64
		TPM int64
	}
	err := base.Session(&gorm.Session{}).
		Select("COUNT(id) AS rpm, COALESCE(SUM(prompt_tokens + completion_tokens), 0) AS tpm").
		Scan(&row).Error
	if err != nil {
		return model.RealtimeStats{}, err
	}

	var activeChannels int64
	if err := base.Session(&gorm.Session{}).Distinct("channel_id").Count(&activeChannels).Error; err != nil {
		return model.RealtimeStats{}, err
	}
	var activeModels int64
	if err := base.Session(&gorm.Session{}).Distinct("model_name").Count(&activeModels).Error; err != nil {
		return model.RealtimeStats{}, err
	}

	return model.RealtimeStats{
		RPM:            row.RPM,
		TPM:            row.TPM,
		ActiveChannels: int(activeChannels),
		ActiveModels:   int(activeModels),
		Timestamp:      now,
	}, nil
}

// ModelActivity lists model names active since the given time, busiest first.
type ModelActivity struct {
	ModelName    string `json:"model_name"`
	RequestCount int64  `json:"request_count"`
}

func ActiveModels(ctx context.Context, since int64) ([]ModelActivity, error) {
	var rows []ModelActivity
	err := db.WithContext(ctx).Model(&model.UsageLog{}).
		Select("model_name, COUNT(id) AS request_count").
		Where("created_at >= ? AND type IN ? AND model_name <> ''",
			since, []int{model.LogTypeConsume, model.LogTypeError}).
		Group("model_name").
		Order("request_count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ModelLogs returns the (createdAt, type) pairs for one model inside
// [start, end), enough to slot a success-rate window.
func ModelLogs(ctx context.Context, modelName string, start, end int64) ([]model.UsageLog, error) {
	var logs []model.UsageLog
	err := db.WithContext(ctx).
		Select("id, created_at, type").
		Where("model_name = ? AND created_at >= ? AND created_at < ? AND type IN ?",
			modelName, start, end, []int{model.LogTypeConsume, model.LogTypeError}).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// LogFilter narrows raw log queries from the API layer.
type LogFilter struct {
	Type      int
	ChannelID *int
	ModelName string // substring match
	Start     int64
	End       int64
}

func (f LogFilter) apply(tx *gorm.DB) *gorm.DB {
	tx = tx.Where("type = ?", f.Type)
	if f.ChannelID != nil {
		tx = tx.Where("channel_id = ?", *f.ChannelID)
	}
	if f.ModelName != "" {
		tx = tx.Where("model_name LIKE ?", "%"+f.ModelName+"%")
	}
	if f.Start > 0 {
		tx = tx.Where("created_at >= ?", f.Start)
	}
	if f.End > 0 {
		tx = tx.Where("created_at <= ?", f.End)
	}
	return tx
}

func LogsList(ctx context.Context, filter LogFilter, page, pageSize int) ([]model.UsageLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	tx := filter.apply(db.WithContext(ctx).Model(&model.UsageLog{}))

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []model.UsageLog
	err := tx.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
