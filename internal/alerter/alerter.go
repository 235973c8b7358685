// Package alerter evaluates threshold rules against the aggregate store and
// the live gateway, and fires the circuit breaker and notifications.
package alerter

import (
	"context"
	"fmt"
	"time"

	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/utils/log"
)

// ChannelBreaker disables a gateway channel; reports whether it succeeded.
type ChannelBreaker interface {
	Disable(ctx context.Context, channelID int) bool
}

// Notifier delivers an alert message; reports whether it was sent.
type Notifier interface {
	Send(title, body string) bool
}

type Alerter struct {
	breaker  ChannelBreaker
	notifier Notifier

	dayOffsetHours int
	cooldown       time.Duration

	now func() time.Time
}

func New(breaker ChannelBreaker, notifier Notifier, dayOffsetHours, cooldownMinutes int) *Alerter {
	if cooldownMinutes <= 0 {
		cooldownMinutes = 60
	}
	return &Alerter{
		breaker:        breaker,
		notifier:       notifier,
		dayOffsetHours: dayOffsetHours,
		cooldown:       time.Duration(cooldownMinutes) * time.Minute,
		now:            time.Now,
	}
}

// CheckAlerts evaluates every enabled rule once. Rules are isolated: a
// malformed rule or a failed evaluation is logged and skipped, the rest of the
// batch still runs.
func (a *Alerter) CheckAlerts(ctx context.Context) {
	alerts, err := op.AlertListEnabled(ctx)
	if err != nil {
		log.Errorf("alerter: listing enabled alerts failed: %v", err)
		return
	}
	if len(alerts) == 0 {
		return
	}
	log.Debugf("alerter: checking %d enabled alerts", len(alerts))

	for _, alert := range alerts {
		if err := a.checkOne(ctx, alert); err != nil {
			log.Errorf("alerter: alert %q (id %d) failed: %v", alert.Name, alert.ID, err)
		}
	}
}

func (a *Alerter) checkOne(ctx context.Context, alert model.Alert) error {
	rule, err := model.ParseAlertRule(alert.Rule)
	if err != nil {
		return err
	}

	now := a.now()
	if !a.inActiveWindow(alert, now) {
		log.Debugf("alerter: %q outside active window %s-%s", alert.Name, alert.StartTime, alert.EndTime)
		return nil
	}

	window := a.resolvePeriod(rule, now)
	result, err := a.evaluate(ctx, rule, window)
	if err != nil {
		return err
	}

	log.Debugf("alerter: %q %s value=%.2f threshold=%.2f", alert.Name, rule.AlertType, result.Value, rule.Threshold)
	if result.Value <= rule.Threshold {
		return nil
	}

	nowMs := now.UnixMilli()
	if nowMs-alert.LastTriggered <= a.cooldown.Milliseconds() {
		log.Infof("alerter: %q breached but in cooldown (last triggered %s)",
			alert.Name, time.UnixMilli(alert.LastTriggered).Format(time.RFC3339))
		return nil
	}

	actionTaken := a.runAction(ctx, alert, rule)
	message := buildMessage(alert, rule, window, result, actionTaken)

	if alert.NotifyTelegram && a.notifier != nil {
		a.notifier.Send("🚨 "+typeLabel(rule.AlertType), message)
	}

	if err := op.AlertMarkTriggered(ctx, alert.ID, result.Value, nowMs); err != nil {
		return fmt.Errorf("marking alert triggered: %w", err)
	}
	if err := op.HistoryAppend(ctx, &model.AlertHistory{
		AlertID:     alert.ID,
		AlertName:   alert.Name,
		TriggeredAt: now.Unix(),
		Value:       result.Value,
		Threshold:   rule.Threshold,
		Message:     message,
		ActionTaken: actionTaken,
	}); err != nil {
		return fmt.Errorf("appending alert history: %w", err)
	}

	log.Infof("alerter: %q triggered, value %.2f > threshold %.2f", alert.Name, result.Value, rule.Threshold)
	return nil
}

// inActiveWindow gates a rule to its daily HH:MM window, bounds inclusive.
// An overnight window (start > end) matches no time of day.
func (a *Alerter) inActiveWindow(alert model.Alert, now time.Time) bool {
	start, okStart := parseClock(alert.StartTime)
	end, okEnd := parseClock(alert.EndTime)
	if !okStart || !okEnd {
		return true
	}
	current := now.Hour()*60 + now.Minute()
	return current >= start && current <= end
}

func parseClock(s string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func (a *Alerter) runAction(ctx context.Context, alert model.Alert, rule model.AlertRule) string {
	if alert.TriggerAction != model.TriggerActionDisable {
		return ""
	}
	channelID, ok := rule.ChannelID()
	if !ok {
		// Disable only makes sense for channel rules; a mismatch is a
		// configuration wart, not an evaluation failure.
		log.Warnf("alerter: %q has disable action but target type %q, skipping", alert.Name, rule.Type)
		return ""
	}
	if a.breaker == nil {
		log.Warnf("alerter: %q wants disable but no breaker configured", alert.Name)
		return "disable_failed"
	}
	if a.breaker.Disable(ctx, channelID) {
		return "disabled"
	}
	return "disable_failed"
}

func buildMessage(alert model.Alert, rule model.AlertRule, window window, result evalResult, actionTaken string) string {
	message := fmt.Sprintf("*Name:* %s\n*Type:* %s\n*Target:* %s\n*Current:* %s\n*Threshold:* %s\n*Period:* %s",
		alert.Name,
		typeLabel(rule.AlertType),
		targetLabel(rule),
		formatValue(rule.AlertType, result.Value),
		formatValue(rule.AlertType, rule.Threshold),
		window.Display,
	)
	if result.Detail != "" {
		message += "\n*Detail:* " + result.Detail
	}
	switch actionTaken {
	case "disabled":
		message += "\n\n⚡ *CIRCUIT BREAKER ACTIVATED* ⚡\nChannel has been automatically DISABLED."
	case "disable_failed":
		message += "\n\n⚠️ *CIRCUIT BREAKER FAILED* ⚠️\nFailed to disable channel. Check logs."
	}
	return message
}

func targetLabel(rule model.AlertRule) string {
	switch rule.Type {
	case model.TargetChannel:
		return "Channel " + rule.Target
	case model.TargetModel:
		return "Model " + rule.Target
	default:
		return "Global"
	}
}

func formatValue(kind model.AlertKind, v float64) string {
	switch kind {
	case model.AlertKindErrorRate, model.AlertKindRequestSpike:
		return fmt.Sprintf("%.2f%%", v)
	case model.AlertKindLatency:
		return fmt.Sprintf("%.0fms", v)
	case model.AlertKindChannelDown, model.AlertKindQuotaLow:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.0f tokens", v)
	}
}

// TypeInfo describes one alert kind for the API.
type TypeInfo struct {
	Kind  model.AlertKind `json:"kind"`
	Label string          `json:"label"`
	Unit  string          `json:"unit"`
}

func Types() []TypeInfo {
	return []TypeInfo{
		{Kind: model.AlertKindTokenUsage, Label: "Token Usage", Unit: "tokens"},
		{Kind: model.AlertKindErrorRate, Label: "Error Rate", Unit: "%"},
		{Kind: model.AlertKindLatency, Label: "Latency", Unit: "ms"},
		{Kind: model.AlertKindChannelDown, Label: "Channel Down", Unit: "channels"},
		{Kind: model.AlertKindQuotaLow, Label: "Quota Low", Unit: "credentials"},
		{Kind: model.AlertKindRequestSpike, Label: "Request Spike", Unit: "%"},
	}
}

func typeLabel(kind model.AlertKind) string {
	for _, info := range Types() {
		if info.Kind == kind {
			return info.Label + " Alert"
		}
	}
	return "Alert"
}
