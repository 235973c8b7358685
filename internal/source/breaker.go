package source

import (
	"context"
	"sync"

	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/utils/log"
	"gorm.io/gorm"
)

// Breaker disables a misbehaving gateway channel by flipping its status to
// manually-disabled, directly in the gateway's store. It holds its own write
// connection, separate from the sync read path, so a stuck sync connection
// never blocks the breaker and a breaker failure never stalls sync.
type Breaker struct {
	dbType string
	dsn    string

	mu   sync.Mutex
	conn *gorm.DB
}

func NewBreaker(dbType, dsn string) *Breaker {
	return &Breaker{dbType: dbType, dsn: dsn}
}

// Disable sets the channel's status to manually-disabled. Returns true only
// when exactly one row changed, i.e. the channel existed. Any error discards
// the cached connection so the next call reconnects fresh.
func (b *Breaker) Disable(ctx context.Context, channelID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := b.connect()
	if err != nil {
		log.Errorf("breaker: connect failed: %v", err)
		return false
	}

	result := conn.WithContext(ctx).Model(&model.GatewayChannel{}).
		Where("id = ?", channelID).
		Update("status", model.ChannelStatusManualDisabled)
	if result.Error != nil {
		log.Errorf("breaker: disabling channel %d failed: %v", channelID, result.Error)
		b.reset()
		return false
	}
	if result.RowsAffected != 1 {
		log.Warnf("breaker: channel %d not found in gateway store", channelID)
		return false
	}
	log.Infof("breaker: channel %d disabled", channelID)
	return true
}

// connect lazily opens the write connection. Callers hold b.mu.
func (b *Breaker) connect() (*gorm.DB, error) {
	if b.conn != nil {
		return b.conn, nil
	}
	conn, err := open(b.dbType, b.dsn, false)
	if err != nil {
		return nil, err
	}
	log.Infof("breaker: gateway store connection established")
	b.conn = conn
	return b.conn, nil
}

// reset drops the cached connection after an error. Callers hold b.mu.
func (b *Breaker) reset() {
	if b.conn == nil {
		return
	}
	if sqlDB, err := b.conn.DB(); err == nil {
		sqlDB.Close()
	}
	b.conn = nil
}

// Close releases the write connection if one was ever opened.
func (b *Breaker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	sqlDB, err := b.conn.DB()
	if err != nil {
		return err
	}
	b.conn = nil
	return sqlDB.Close()
}
