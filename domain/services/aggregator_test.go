package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/macscan/domain/entities"
)

func entries(n int) []entities.CanonicalEntry {
	out := make([]entities.CanonicalEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entities.CanonicalEntry{
			Vlan: "1",
			Mac:  fmt.Sprintf("0012.3456.78%02x", i),
			Type: entities.EntryDynamic,
			Port: fmt.Sprintf("Gi0/%d", i+1),
		})
	}
	return out
}

func TestAggregator_Summary(t *testing.T) {
	agg := NewAggregator()
	agg.AddDeviceResult("s1", entities.SuccessResult(entries(3), "ios"))
	agg.AddDeviceResult("s2", entities.FailureResult("connection refused"))

	summary := agg.Summary()
	assert.Equal(t, Summary{TotalEntries: 3, SuccessfulDevices: 1, FailedDevices: 1}, summary)
}

func TestAggregator_EmptySuccessCountsAsSuccessful(t *testing.T) {
	agg := NewAggregator()
	agg.AddDeviceResult("s1", entities.SuccessResult(nil, "nxos"))

	summary := agg.Summary()
	assert.Equal(t, 0, summary.TotalEntries)
	assert.Equal(t, 1, summary.SuccessfulDevices)
	assert.Equal(t, 0, summary.FailedDevices)
}

func TestAggregator_LastWriteWins(t *testing.T) {
	agg := NewAggregator()
	agg.AddDeviceResult("s1", entities.FailureResult("timeout"))
	agg.AddDeviceResult("s1", entities.SuccessResult(entries(2), "ios"))

	require.Equal(t, 1, agg.Len())
	result, ok := agg.Result("s1")
	require.True(t, ok)
	assert.False(t, result.Failed())
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, Summary{TotalEntries: 2, SuccessfulDevices: 1}, agg.Summary())
}

func TestAggregator_DeviceIDsSorted(t *testing.T) {
	agg := NewAggregator()
	for _, id := range []string{"s3", "s1", "s2"} {
		agg.AddDeviceResult(id, entities.SuccessResult(nil, "ios"))
	}
	assert.Equal(t, []string{"s1", "s2", "s3"}, agg.DeviceIDs())

	_, ok := agg.Result("missing")
	assert.False(t, ok)
}

func TestAggregator_ResultsIsACopy(t *testing.T) {
	agg := NewAggregator()
	agg.AddDeviceResult("s1", entities.SuccessResult(entries(1), "ios"))

	results := agg.Results()
	delete(results, "s1")
	assert.Equal(t, 1, agg.Len())
}

func TestAggregator_ConcurrentWrites(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				agg.AddDeviceResult(fmt.Sprintf("s%d", i), entities.FailureResult("boom"))
				return
			}
			agg.AddDeviceResult(fmt.Sprintf("s%d", i), entities.SuccessResult(entries(2), "ios"))
		}(i)
	}
	wg.Wait()

	summary := agg.Summary()
	assert.Equal(t, 40, summary.SuccessfulDevices)
	assert.Equal(t, 10, summary.FailedDevices)
	assert.Equal(t, 80, summary.TotalEntries)
}
