package model

// Meta is generic key/value state owned by the monitor, most importantly the
// sync watermark.
type Meta struct {
	Key   string `json:"key" gorm:"primaryKey"`
	Value string `json:"value"`
}

func (Meta) TableName() string {
	return "meta"
}

// MetaKeyLastSyncedID is the highest source log id already folded into stats.
// Stored as a string-encoded integer, monotonically non-decreasing.
const MetaKeyLastSyncedID = "last_synced_id"
