package kvcache

// Stats is a point-in-time view of cache activity.
type Stats struct {
	// HitCount is the number of Get calls that returned a value.
	HitCount int64 `json:"hitCount"`

	// MissCount is the number of Get calls that found nothing live.
	MissCount int64 `json:"missCount"`

	// HitRate is HitCount / (HitCount + MissCount), or 0 with no lookups.
	HitRate float64 `json:"hitRate"`

	// EntryCount is the number of stored entries.
	EntryCount int `json:"entryCount"`

	// TotalSizeEstimate is the summed size estimate of stored entries, in bytes.
	TotalSizeEstimate int64 `json:"totalSizeEstimate"`

	// EvictionCount counts entries removed by expiry or capacity limits.
	EvictionCount int64 `json:"evictionCount"`
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
