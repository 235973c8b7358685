// Package status computes per-model health from recent gateway logs. Each
// model gets a sliding window of success-rate slots, colored by how many
// requests failed inside each slot.
package status

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bestruirui/argus/internal/model"
	"github.com/bestruirui/argus/internal/source"
	"github.com/bestruirui/argus/internal/utils/cache"
)

// windowSpec maps a named range onto equal time slots.
type windowSpec struct {
	Slots       int
	SlotSeconds int64
}

var windows = map[string]windowSpec{
	"1h":  {Slots: 12, SlotSeconds: 300},
	"6h":  {Slots: 24, SlotSeconds: 900},
	"12h": {Slots: 24, SlotSeconds: 1800},
	"24h": {Slots: 24, SlotSeconds: 3600},
}

const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGray   = "gray"

	greenThreshold  = 95.0
	yellowThreshold = 80.0
)

type Slot struct {
	Timestamp   int64   `json:"timestamp"`
	Requests    int64   `json:"requests"`
	Errors      int64   `json:"errors"`
	SuccessRate float64 `json:"success_rate"`
	Color       string  `json:"color"`
}

type ModelStatus struct {
	ModelName   string  `json:"model_name"`
	Range       string  `json:"range"`
	Requests    int64   `json:"requests"`
	Errors      int64   `json:"errors"`
	SuccessRate float64 `json:"success_rate"`
	Color       string  `json:"color"`
	Slots       []Slot  `json:"slots"`
}

type Overview struct {
	Range     string        `json:"range"`
	Healthy   int           `json:"healthy"`
	Warning   int           `json:"warning"`
	Critical  int           `json:"critical"`
	Models    []ModelStatus `json:"models"`
	Timestamp int64         `json:"timestamp"`
}

const (
	statusCacheTTL = 30 * time.Second
	modelsCacheTTL = 5 * time.Minute
	overviewLimit  = 20
)

type cachedStatus struct {
	status ModelStatus
	at     time.Time
}

type cachedModels struct {
	names []string
	at    time.Time
}

var (
	statusCache = cache.New[string, cachedStatus](16)
	modelCache  = cache.New[string, cachedModels](1)
)

// Ranges lists the supported window names.
func Ranges() []string {
	return []string{"1h", "6h", "12h", "24h"}
}

// ForModel computes (or serves a cached copy of) one model's slot window.
func ForModel(ctx context.Context, modelName, rangeName string) (ModelStatus, error) {
	spec, ok := windows[rangeName]
	if !ok {
		return ModelStatus{}, fmt.Errorf("unknown status range: %s", rangeName)
	}

	key := modelName + "|" + rangeName
	if hit, ok := statusCache.Get(key); ok && time.Since(hit.at) < statusCacheTTL {
		return hit.status, nil
	}

	now := time.Now().Unix()
	windowLen := int64(spec.Slots) * spec.SlotSeconds
	start := now - windowLen

	logs, err := source.ModelLogs(ctx, modelName, start, now)
	if err != nil {
		return ModelStatus{}, err
	}

	st := slotLogs(modelName, rangeName, spec, start, logs)
	statusCache.Set(key, cachedStatus{status: st, at: time.Now()})
	return st, nil
}

// slotLogs buckets logs into fixed slots and colors each one.
func slotLogs(modelName, rangeName string, spec windowSpec, start int64, logs []model.UsageLog) ModelStatus {
	slots := make([]Slot, spec.Slots)
	for i := range slots {
		slots[i].Timestamp = start + int64(i)*spec.SlotSeconds
	}

	var totalReq, totalErr int64
	for _, l := range logs {
		idx := (l.CreatedAt - start) / spec.SlotSeconds
		if idx < 0 || idx >= int64(spec.Slots) {
			continue
		}
		slots[idx].Requests++
		totalReq++
		if l.Type == model.LogTypeError {
			slots[idx].Errors++
			totalErr++
		}
	}

	for i := range slots {
		slots[i].SuccessRate, slots[i].Color = rateAndColor(slots[i].Requests, slots[i].Errors)
	}
	rate, color := rateAndColor(totalReq, totalErr)

	return ModelStatus{
		ModelName:   modelName,
		Range:       rangeName,
		Requests:    totalReq,
		Errors:      totalErr,
		SuccessRate: rate,
		Color:       color,
		Slots:       slots,
	}
}

func rateAndColor(requests, errors int64) (float64, string) {
	if requests == 0 {
		return 100, ColorGray
	}
	rate := float64(requests-errors) / float64(requests) * 100
	switch {
	case rate >= greenThreshold:
		return rate, ColorGreen
	case rate >= yellowThreshold:
		return rate, ColorYellow
	default:
		return rate, ColorRed
	}
}

// activeModelNames returns models seen in the last 24h, busiest first.
func activeModelNames(ctx context.Context) ([]string, error) {
	if hit, ok := modelCache.Get("active"); ok && time.Since(hit.at) < modelsCacheTTL {
		return hit.names, nil
	}
	rows, err := source.ActiveModels(ctx, time.Now().Add(-24*time.Hour).Unix())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.ModelName)
	}
	modelCache.Set("active", cachedModels{names: names, at: time.Now()})
	return names, nil
}

// GetOverview summarizes the busiest models for one range.
func GetOverview(ctx context.Context, rangeName string) (Overview, error) {
	if _, ok := windows[rangeName]; !ok {
		return Overview{}, fmt.Errorf("unknown status range: %s", rangeName)
	}

	names, err := activeModelNames(ctx)
	if err != nil {
		return Overview{}, err
	}
	if len(names) > overviewLimit {
		names = names[:overviewLimit]
	}

	ov := Overview{Range: rangeName, Timestamp: time.Now().Unix()}
	for _, name := range names {
		st, err := ForModel(ctx, name, rangeName)
		if err != nil {
			return Overview{}, err
		}
		ov.Models = append(ov.Models, st)
		switch st.Color {
		case ColorRed:
			ov.Critical++
		case ColorYellow:
			ov.Warning++
		default:
			ov.Healthy++
		}
	}

	// Worst health first so dashboards surface trouble without sorting.
	sort.SliceStable(ov.Models, func(i, j int) bool {
		return colorRank(ov.Models[i].Color) < colorRank(ov.Models[j].Color)
	})
	return ov, nil
}

func colorRank(c string) int {
	switch c {
	case ColorRed:
		return 0
	case ColorYellow:
		return 1
	case ColorGreen:
		return 2
	default:
		return 3
	}
}
