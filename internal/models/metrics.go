package models

import "time"

// SystemMetrics is the admin view of in-process counters.
type SystemMetrics struct {
	Requests      RequestStats      `json:"requests"`
	Cache         CacheStats        `json:"cache"`
	Projections   QueryStats        `json:"projections"`
	ReportJobs    map[string]uint64 `json:"report_jobs"`
	Transitions   map[string]uint64 `json:"transitions"`
	Goroutines    int               `json:"goroutines"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

type RequestStats struct {
	Total         uint64  `json:"total"`
	ServerErrors  uint64  `json:"server_errors"`
	AverageMillis float64 `json:"average_ms"`
}

type CacheStats struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

type QueryStats struct {
	Count         uint64  `json:"count"`
	AverageMillis float64 `json:"average_ms"`
}
