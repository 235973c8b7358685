package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type AlertKind string

const (
	AlertKindTokenUsage   AlertKind = "token_usage"
	AlertKindErrorRate    AlertKind = "error_rate"
	AlertKindLatency      AlertKind = "latency"
	AlertKindChannelDown  AlertKind = "channel_down"
	AlertKindQuotaLow     AlertKind = "quota_low"
	AlertKindRequestSpike AlertKind = "request_spike"
)

func (k AlertKind) Valid() bool {
	switch k {
	case AlertKindTokenUsage, AlertKindErrorRate, AlertKindLatency,
		AlertKindChannelDown, AlertKindQuotaLow, AlertKindRequestSpike:
		return true
	}
	return false
}

type TargetType string

const (
	TargetChannel TargetType = "channel"
	TargetModel   TargetType = "model"
	TargetGlobal  TargetType = "global"
)

const (
	TriggerActionNotify  = "notify"
	TriggerActionDisable = "disable"
)

const (
	PeriodDaily  = "daily"
	PeriodToday  = "today" // accepted alias of daily
	PeriodCustom = "custom"
)

type Alert struct {
	ID             int     `json:"id" gorm:"primaryKey"`
	Name           string  `json:"name" gorm:"not null"`
	Rule           string  `json:"rule" gorm:"column:rule_json;not null"`
	Enabled        bool    `json:"enabled" gorm:"default:true"`
	StartTime      string  `json:"start_time" gorm:"default:'00:00'"` // daily active window, HH:MM
	EndTime        string  `json:"end_time" gorm:"default:'23:59'"`
	NotifyTelegram bool    `json:"notify_telegram" gorm:"default:false"`
	NotifyFeishu   bool    `json:"notify_feishu" gorm:"default:false"`
	NotifyWecom    bool    `json:"notify_wecom" gorm:"default:false"`
	TriggerAction  string  `json:"trigger_action" gorm:"default:'notify'"`
	LastTriggered  int64   `json:"last_triggered" gorm:"default:0"` // unix milliseconds
	LastValue      float64 `json:"last_value" gorm:"default:0"`
	TriggerCount   int64   `json:"trigger_count" gorm:"default:0"`
	CreatedAt      int64   `json:"created_at" gorm:"autoCreateTime"`
}

func (Alert) TableName() string {
	return "alerts"
}

// AlertRule is the structured part of an alert. Stored as JSON in
// Alert.Rule; rules written through the API are validated at write time, but
// evaluation still tolerates malformed rows that predate validation.
type AlertRule struct {
	AlertType AlertKind  `json:"alertType"`
	Type      TargetType `json:"type"` // aggregation target
	Target    string     `json:"target,omitempty"`
	Threshold float64    `json:"threshold"`
	// Period is a relative-hours number ("24"), "daily"/"today", or "custom".
	Period        string `json:"period"`
	CustomStartTs int64  `json:"customStartTs,omitempty"`
	CustomEndTs   int64  `json:"customEndTs,omitempty"`
}

// ParseAlertRule decodes and validates a rule JSON blob.
func ParseAlertRule(raw string) (AlertRule, error) {
	var rule AlertRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return rule, fmt.Errorf("invalid rule json: %w", err)
	}
	if err := rule.Validate(); err != nil {
		return rule, err
	}
	return rule, nil
}

func (r *AlertRule) Validate() error {
	if r.AlertType == "" {
		// Rules created before alert types existed are token usage rules.
		r.AlertType = AlertKindTokenUsage
	}
	if !r.AlertType.Valid() {
		return fmt.Errorf("unknown alert type: %s", r.AlertType)
	}
	switch r.Type {
	case TargetChannel, TargetModel:
		if r.Target == "" {
			return fmt.Errorf("target is required for %s rules", r.Type)
		}
	case TargetGlobal, "":
		r.Type = TargetGlobal
	default:
		return fmt.Errorf("unknown target type: %s", r.Type)
	}
	if r.Type == TargetChannel {
		if _, err := strconv.Atoi(r.Target); err != nil {
			return fmt.Errorf("channel target must be a channel id: %q", r.Target)
		}
	}
	if r.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative")
	}
	switch r.Period {
	case PeriodDaily, PeriodToday, PeriodCustom, "":
	default:
		if _, err := strconv.ParseFloat(r.Period, 64); err != nil {
			return fmt.Errorf("period must be hours, %q, %q or %q", PeriodDaily, PeriodToday, PeriodCustom)
		}
	}
	return nil
}

// ChannelID returns the numeric channel target. Only meaningful for
// channel-target rules, which Validate guarantees parse cleanly.
func (r *AlertRule) ChannelID() (int, bool) {
	if r.Type != TargetChannel {
		return 0, false
	}
	id, err := strconv.Atoi(r.Target)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AlertHistory is the append-only firing log. Rows are written once per
// trigger and never mutated.
type AlertHistory struct {
	ID          int     `json:"id" gorm:"primaryKey"`
	AlertID     int     `json:"alert_id" gorm:"index;not null"`
	AlertName   string  `json:"alert_name"`
	TriggeredAt int64   `json:"triggered_at" gorm:"index"` // unix seconds
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
	Message     string  `json:"message"`
	ActionTaken string  `json:"action_taken"`
}

func (AlertHistory) TableName() string {
	return "alert_history"
}
