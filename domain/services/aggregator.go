package services

import (
	"sort"
	"sync"

	"github.com/carlosrabelo/macscan/domain/entities"
)

// ResultSet maps a device identity to its outcome for one polling round
type ResultSet map[string]entities.DeviceResult

// Summary is the aggregate view of a ResultSet
type Summary struct {
	TotalEntries      int
	SuccessfulDevices int
	FailedDevices     int
}

// Aggregator collects per-device results of a polling round.
// It is safe for concurrent use by the workers of a round.
type Aggregator struct {
	mu      sync.RWMutex
	results ResultSet
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{results: make(ResultSet)}
}

// AddDeviceResult records the outcome of a device; a second report replaces the first
func (a *Aggregator) AddDeviceResult(deviceID string, result entities.DeviceResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[deviceID] = result
}

// Result returns the outcome recorded for a device
func (a *Aggregator) Result(deviceID string) (entities.DeviceResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	result, ok := a.results[deviceID]
	return result, ok
}

// DeviceIDs returns the reported devices in sorted order
func (a *Aggregator) DeviceIDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.results))
	for id := range a.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of reported devices
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.results)
}

// Results returns a copy of the current result set
func (a *Aggregator) Results() ResultSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(ResultSet, len(a.results))
	for id, result := range a.results {
		out[id] = result
	}
	return out
}

// Summary counts entries over successful devices only
func (a *Aggregator) Summary() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var summary Summary
	for _, result := range a.results {
		if result.Failed() {
			continue
		}
		summary.SuccessfulDevices++
		summary.TotalEntries += len(result.Entries)
	}
	summary.FailedDevices = len(a.results) - summary.SuccessfulDevices
	return summary
}
