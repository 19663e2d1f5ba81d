package domain

import "time"

// AnalyticsEvent is one scan of a link. Events are append-only.
type AnalyticsEvent struct {
	ID        int64     `json:"id"`
	LinkID    string    `json:"link_id"`
	Timestamp time.Time `json:"timestamp"`
	Platform  Platform  `json:"platform"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer,omitempty"`
	IPHash    string    `json:"ip_hash"` // sha256 of the client address
	Outcome   Outcome   `json:"outcome"`
}

// LinkAnalytics represents aggregated scan counts for a link
type LinkAnalytics struct {
	LinkID     string             `json:"link_id"`
	TotalScans int64              `json:"total_scans"`
	ByDevice   map[Platform]int64 `json:"by_device"`
	ByOutcome  map[Outcome]int64  `json:"by_outcome"`
	Scans      []ScanSummary      `json:"scans"` // most recent first
}

type ScanSummary struct {
	Timestamp  time.Time `json:"timestamp"`
	DeviceType Platform  `json:"device_type"`
	Outcome    Outcome   `json:"outcome"`
	IPHash     string    `json:"ip_hash"`
}
