package entities

// CacheStats represents metadata cache statistics
type CacheStats struct {
	// Hits is the number of cache hits
	Hits int64 `json:"hits"`

	// Misses is the number of cache misses
	Misses int64 `json:"misses"`

	// Evictions is the number of cache evictions
	Evictions int64 `json:"evictions"`

	// Size is the current number of cached entries across both caches
	Size int `json:"size"`

	// HitRate is the percentage of cache hits
	HitRate float64 `json:"hit_rate"`
}
