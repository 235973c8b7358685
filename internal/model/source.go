package model

// Rows of the external gateway's store. The schema is owned by the gateway;
// these mappings cover only the columns the monitor touches.

// 日志类型，与网关约定一致
const (
	LogTypeConsume = 2 // 成功请求
	LogTypeError   = 5 // 失败请求
)

const (
	ChannelStatusEnabled        = 1
	ChannelStatusManualDisabled = 2
	ChannelStatusAutoDisabled   = 3
)

const (
	TokenStatusEnabled = 1
)

// UsageLog is one request record in the gateway's logs table. Immutable once
// written; ids are monotonic, so they double as the sync ordering key.
type UsageLog struct {
	ID               int64  `json:"id" gorm:"primaryKey"`
	ChannelID        int    `json:"channel_id" gorm:"column:channel_id"`
	ModelName        string `json:"model_name"`
	CreatedAt        int64  `json:"created_at" gorm:"column:created_at"` // unix seconds
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	Quota            int64  `json:"quota"` // cost units
	UseTime          int64  `json:"use_time"` // latency, milliseconds
	Type             int    `json:"type"`
}

func (UsageLog) TableName() string {
	return "logs"
}

type GatewayChannel struct {
	ID           int     `json:"id" gorm:"primaryKey"`
	Name         string  `json:"name"`
	Type         int     `json:"type"`
	Status       int     `json:"status"`
	ResponseTime int     `json:"response_time"`
	TestTime     int64   `json:"test_time"`
	Balance      float64 `json:"balance"`
}

func (GatewayChannel) TableName() string {
	return "channels"
}

// GatewayToken is a gateway credential with a quota balance.
type GatewayToken struct {
	ID             int    `json:"id" gorm:"primaryKey"`
	Name           string `json:"name"`
	Status         int    `json:"status"`
	RemainQuota    int64  `json:"remain_quota"`
	UsedQuota      int64  `json:"used_quota"`
	UnlimitedQuota bool   `json:"unlimited_quota"`
	ExpiredTime    int64  `json:"expired_time"`
}

func (GatewayToken) TableName() string {
	return "tokens"
}

// RealtimeStats is the last-60s load snapshot refreshed from the source store.
type RealtimeStats struct {
	RPM            int64 `json:"rpm"`
	TPM            int64 `json:"tpm"`
	ActiveChannels int   `json:"active_channels"`
	ActiveModels   int   `json:"active_models"`
	Timestamp      int64 `json:"timestamp"`
}
