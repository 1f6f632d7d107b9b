package model

import "time"

// HealthStatus reports engine-level sync health.
type HealthStatus struct {
	Healthy        bool      `json:"healthy"`
	MonitoredPools int       `json:"monitored_pools"`
	SyncedPools    int       `json:"synced_pools"`
	LastSync       time.Time `json:"last_sync"`
}

// Coverage reports the synced share of monitored pools, in [0, 1].
func (h HealthStatus) Coverage() float64 {
	if h.MonitoredPools == 0 {
		return 0
	}
	return float64(h.SyncedPools) / float64(h.MonitoredPools)
}
