package alerter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/source"
	"github.com/samber/lo"
)

type window struct {
	Start   int64 // unix seconds, inclusive
	End     int64 // unix seconds, inclusive
	Display string
}

func (w window) length() int64 {
	return w.End - w.Start
}

type evalResult struct {
	Value  float64
	Detail string
}

// resolvePeriod turns a rule's period into a concrete [start, end] window.
func (a *Alerter) resolvePeriod(rule model.AlertRule, now time.Time) window {
	nowTs := now.Unix()
	switch rule.Period {
	case model.PeriodCustom:
		start := rule.CustomStartTs
		if start == 0 {
			start = nowTs - 24*3600
		}
		end := rule.CustomEndTs
		if end == 0 {
			end = nowTs
		}
		return window{
			Start: start,
			End:   end,
			Display: fmt.Sprintf("Custom: %s → %s",
				time.Unix(start, 0).UTC().Format("2006-01-02 15:04"),
				time.Unix(end, 0).UTC().Format("2006-01-02 15:04")),
		}
	case model.PeriodDaily, model.PeriodToday:
		// Day boundary in the configured fixed offset, not server local time.
		zone := time.FixedZone("day-offset", a.dayOffsetHours*3600)
		local := now.In(zone)
		dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
		return window{
			Start:   dayStart.Unix(),
			End:     nowTs,
			Display: fmt.Sprintf("Current Day (00:00 UTC%+d - Now)", a.dayOffsetHours),
		}
	default:
		hours, err := strconv.ParseFloat(rule.Period, 64)
		if err != nil || hours <= 0 {
			hours = 24
		}
		return window{
			Start:   nowTs - int64(hours*3600),
			End:     nowTs,
			Display: fmt.Sprintf("Last %g hours", hours),
		}
	}
}

func (a *Alerter) evaluate(ctx context.Context, rule model.AlertRule, win window) (evalResult, error) {
	switch rule.AlertType {
	case model.AlertKindTokenUsage:
		return a.evalTokenUsage(ctx, rule, win)
	case model.AlertKindErrorRate:
		return a.evalErrorRate(ctx, rule, win)
	case model.AlertKindLatency:
		return a.evalLatency(ctx, rule, win)
	case model.AlertKindChannelDown:
		return a.evalChannelDown(ctx)
	case model.AlertKindQuotaLow:
		return a.evalQuotaLow(ctx, rule)
	case model.AlertKindRequestSpike:
		return a.evalRequestSpike(ctx, rule, win)
	default:
		return evalResult{}, fmt.Errorf("unknown alert type: %s", rule.AlertType)
	}
}

func statFilter(rule model.AlertRule, win window) op.StatFilter {
	filter := op.StatFilter{Start: win.Start, End: win.End}
	switch rule.Type {
	case model.TargetChannel:
		if id, ok := rule.ChannelID(); ok {
			filter.ChannelID = &id
		}
	case model.TargetModel:
		filter.ModelName = rule.Target
	}
	return filter
}

func (a *Alerter) evalTokenUsage(ctx context.Context, rule model.AlertRule, win window) (evalResult, error) {
	summary, err := op.StatsSummarize(ctx, statFilter(rule, win))
	if err != nil {
		return evalResult{}, err
	}
	return evalResult{Value: float64(summary.Tokens)}, nil
}

func (a *Alerter) evalErrorRate(ctx context.Context, rule model.AlertRule, win window) (evalResult, error) {
	summary, err := op.StatsSummarize(ctx, statFilter(rule, win))
	if err != nil {
		return evalResult{}, err
	}
	if summary.RequestCount == 0 {
		return evalResult{Detail: "no requests in window"}, nil
	}
	rate := float64(summary.ErrorCount) / float64(summary.RequestCount) * 100
	return evalResult{
		Value:  rate,
		Detail: fmt.Sprintf("%d errors / %d requests", summary.ErrorCount, summary.RequestCount),
	}, nil
}

func (a *Alerter) evalLatency(ctx context.Context, rule model.AlertRule, win window) (evalResult, error) {
	summary, err := op.StatsSummarize(ctx, statFilter(rule, win))
	if err != nil {
		return evalResult{}, err
	}
	if summary.RequestCount == 0 {
		return evalResult{Detail: "no requests in window"}, nil
	}
	return evalResult{
		Value:  summary.AvgLatency,
		Detail: fmt.Sprintf("over %d requests", summary.RequestCount),
	}, nil
}

func (a *Alerter) evalChannelDown(ctx context.Context) (evalResult, error) {
	channels, err := source.DisabledChannels(ctx)
	if err != nil {
		return evalResult{}, err
	}
	names := lo.Map(channels, func(ch model.GatewayChannel, _ int) string {
		return fmt.Sprintf("%s (#%d)", ch.Name, ch.ID)
	})
	return evalResult{
		Value:  float64(len(channels)),
		Detail: strings.Join(names, ", "),
	}, nil
}

func (a *Alerter) evalQuotaLow(ctx context.Context, rule model.AlertRule) (evalResult, error) {
	tokens, err := source.LowQuotaTokens(ctx, int64(rule.Threshold))
	if err != nil {
		return evalResult{}, err
	}
	names := lo.Map(tokens, func(t model.GatewayToken, _ int) string {
		return fmt.Sprintf("%s (remaining %d)", t.Name, t.RemainQuota)
	})
	return evalResult{
		Value:  float64(len(tokens)),
		Detail: strings.Join(names, ", "),
	}, nil
}

// evalRequestSpike compares the current window's request volume against the
// immediately preceding window of equal length. A previous count of zero is
// treated as one: the metric stays finite and a cold start reads as a large
// spike, which is the intended bias.
func (a *Alerter) evalRequestSpike(ctx context.Context, rule model.AlertRule, win window) (evalResult, error) {
	current, err := op.StatsSummarize(ctx, statFilter(rule, win))
	if err != nil {
		return evalResult{}, err
	}
	previousWin := window{Start: win.Start - win.length(), End: win.Start - 1}
	previous, err := op.StatsSummarize(ctx, statFilter(rule, previousWin))
	if err != nil {
		return evalResult{}, err
	}

	previousCount := previous.RequestCount
	if previousCount == 0 {
		previousCount = 1
	}
	change := float64(current.RequestCount-previousCount) / float64(previousCount) * 100
	return evalResult{
		Value:  change,
		Detail: fmt.Sprintf("%d requests now vs %d before", current.RequestCount, previous.RequestCount),
	}, nil
}
