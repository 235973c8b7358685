package model

// HourlyStat is one aggregate bucket keyed by (channel, model, hour).
// Hour is the bucket start: floor(createdAt/3600)*3600.
type HourlyStat struct {
	ChannelID    int     `json:"channel_id" gorm:"primaryKey;autoIncrement:false"`
	ModelName    string  `json:"model_name" gorm:"primaryKey"`
	Hour         int64   `json:"hour" gorm:"primaryKey;autoIncrement:false"`
	Tokens       int64   `json:"tokens"`        // prompt + completion
	RequestCount int64   `json:"request_count"` // error records count too
	Quota        float64 `json:"quota"`
	ErrorCount   int64   `json:"error_count"`
	AvgLatency   float64 `json:"avg_latency"` // request-weighted mean, milliseconds
}

func (HourlyStat) TableName() string {
	return "stats"
}

// Merge folds another contribution into the bucket. AvgLatency must carry a
// running request-weighted mean: raw per-record latencies are gone after
// aggregation, so it cannot be recomputed from scratch.
func (s *HourlyStat) Merge(delta HourlyStat) {
	total := s.RequestCount + delta.RequestCount
	if total > 0 {
		s.AvgLatency = (s.AvgLatency*float64(s.RequestCount) +
			delta.AvgLatency*float64(delta.RequestCount)) / float64(total)
	}
	s.Tokens += delta.Tokens
	s.RequestCount += delta.RequestCount
	s.Quota += delta.Quota
	s.ErrorCount += delta.ErrorCount
}

// StatSummary is the windowed rollup the query API and the alerter share.
type StatSummary struct {
	Tokens       int64   `json:"tokens"`
	RequestCount int64   `json:"request_count"`
	Quota        float64 `json:"quota"`
	ErrorCount   int64   `json:"error_count"`
	AvgLatency   float64 `json:"avg_latency"`
}
