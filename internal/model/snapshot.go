package model

// ChannelSnapshot is a periodic point-in-time capture of gateway channel
// health. Observability data only; the channel_down rule queries live status
// instead.
type ChannelSnapshot struct {
	ID           int     `json:"id" gorm:"primaryKey"`
	ChannelID    int     `json:"channel_id" gorm:"index"`
	Status       int     `json:"status"`
	ResponseTime int     `json:"response_time"`
	Balance      float64 `json:"balance"`
	SnapshotTime int64   `json:"snapshot_time" gorm:"index"` // unix seconds
}

func (ChannelSnapshot) TableName() string {
	return "channel_snapshots"
}
