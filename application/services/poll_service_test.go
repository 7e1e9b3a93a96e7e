package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/ports"
)

const iosTable = `          Mac Address Table
-------------------------------------------

Vlan    Mac Address       Type        Ports
----    -----------       --------    -----
  10    0011.2233.4455    DYNAMIC     Gi1/0/1
  20    6677.8899.aabb    STATIC      Gi1/0/2
  30    00:11:22:33:44:66 DYNAMIC     Gi1/0/3
Total Mac Addresses for this criterion: 3
`

const nxosTable = `   VLAN     MAC Address      Type      age     Secure NTFY Ports
---------+-----------------+--------+---------+------+----+------------------
*    1     000c.2937.a1ae   dynamic  NA         F      F    Eth1/1
G    -     0050.5689.1234   static   -          F      F    sup-eth1(R)
`

type fakeCLI struct {
	mu        sync.Mutex
	responses map[string]entities.Outcome[CLIResponse]
	checkErrs map[string]error
	calls     []string
}

func (f *fakeCLI) FetchMacTable(_ context.Context, cfg entities.SwitchConfig) entities.Outcome[CLIResponse] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cfg.DeviceID())
	if out, ok := f.responses[cfg.DeviceID()]; ok {
		return out
	}
	return entities.Failure[CLIResponse](errors.New("no response configured"))
}

func (f *fakeCLI) CheckConnectivity(_ context.Context, cfg entities.SwitchConfig) error {
	return f.checkErrs[cfg.DeviceID()]
}

type fakeSource struct {
	records []entities.RawRecord
	err     error
}

func (s fakeSource) FetchRecords(context.Context) ([]entities.RawRecord, error) {
	return s.records, s.err
}

func sources(byDevice map[string]fakeSource) RecordSourceFactory {
	return func(cfg entities.SwitchConfig) (ports.RecordSource, error) {
		src, ok := byDevice[cfg.DeviceID()]
		if !ok {
			return nil, errors.New("unknown device")
		}
		return src, nil
	}
}

func TestPollDevice_FamilyA(t *testing.T) {
	cli := &fakeCLI{responses: map[string]entities.Outcome[CLIResponse]{
		"sw1": entities.Success(CLIResponse{Platform: "ios", Output: iosTable}),
	}}
	svc := NewPollServiceWith(cli, sources(nil), 2)

	result := svc.PollDevice(context.Background(), entities.SwitchConfig{Name: "sw1", Source: "cli"})
	require.False(t, result.Failed())
	assert.Equal(t, "ios", result.Platform)
	assert.Equal(t, []entities.CanonicalEntry{
		{Vlan: "10", Mac: "0011.2233.4455", Type: "dynamic", Port: "Gi1/0/1"},
		{Vlan: "30", Mac: "0011.2233.4466", Type: "dynamic", Port: "Gi1/0/3"},
	}, result.Entries)
}

func TestPollDevice_FamilyB(t *testing.T) {
	cli := &fakeCLI{responses: map[string]entities.Outcome[CLIResponse]{
		"nx1": entities.Success(CLIResponse{Platform: "nxos", Output: nxosTable}),
	}}
	svc := NewPollServiceWith(cli, sources(nil), 1)

	result := svc.PollDevice(context.Background(), entities.SwitchConfig{Name: "nx1"})
	require.False(t, result.Failed())
	assert.Equal(t, []entities.CanonicalEntry{
		{Vlan: "1", Mac: "000c.2937.a1ae", Type: "dynamic", Port: "Eth1/1"},
	}, result.Entries)
}

func TestPollDevice_TransportFailure(t *testing.T) {
	cli := &fakeCLI{responses: map[string]entities.Outcome[CLIResponse]{
		"sw1": entities.Failure[CLIResponse](errors.New("connection refused")),
	}}
	svc := NewPollServiceWith(cli, sources(nil), 1)

	result := svc.PollDevice(context.Background(), entities.SwitchConfig{Name: "sw1", Source: "cli"})
	assert.True(t, result.Failed())
	assert.Equal(t, "connection refused", result.Error)
}

func TestPollDevice_UnknownPlatform(t *testing.T) {
	cli := &fakeCLI{responses: map[string]entities.Outcome[CLIResponse]{
		"sw1": entities.Success(CLIResponse{Platform: "dmos", Output: iosTable}),
	}}
	svc := NewPollServiceWith(cli, sources(nil), 1)

	result := svc.PollDevice(context.Background(), entities.SwitchConfig{Name: "sw1"})
	assert.True(t, result.Failed())
}

func TestPollDevice_EmptyTableIsSuccess(t *testing.T) {
	cli := &fakeCLI{responses: map[string]entities.Outcome[CLIResponse]{
		"sw1": entities.Success(CLIResponse{Platform: "ios", Output: "Vlan Mac Address Type Ports\n---- ----\n"}),
	}}
	svc := NewPollServiceWith(cli, sources(nil), 1)

	result := svc.PollDevice(context.Background(), entities.SwitchConfig{Name: "sw1"})
	assert.False(t, result.Failed())
	assert.True(t, result.Empty())
}

func TestPollDevice_Records(t *testing.T) {
	src := fakeSource{records: []entities.RawRecord{
		{Mac: "00:11:22:33:44:55", Interface: "Gi0/1", Vlan: 10, Static: entities.Bool(false), Active: entities.Bool(true)},
		{Mac: "66:77:88:99:AA:BB", Interface: "Gi0/2", Vlan: 20, Static: entities.Bool(true)},
		{Mac: "cc:dd:ee:ff:00:11", Interface: "Gi0/3", Vlan: 30, Active: entities.Bool(false)},
	}}
	svc := NewPollServiceWith(&fakeCLI{}, sources(map[string]fakeSource{"sw1": src}), 1)

	result := svc.PollDevice(context.Background(), entities.SwitchConfig{Name: "sw1", Source: "snmp", Platform: "ios"})
	require.False(t, result.Failed())
	assert.Equal(t, "ios", result.Platform)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "static", result.Entries[1].Type)
}

func TestPollDevice_RecordsFailure(t *testing.T) {
	src := fakeSource{err: errors.New("request timeout")}
	svc := NewPollServiceWith(&fakeCLI{}, sources(map[string]fakeSource{"sw1": src}), 1)

	result := svc.PollDevice(context.Background(), entities.SwitchConfig{Name: "sw1", Source: "file"})
	assert.True(t, result.Failed())
	assert.Equal(t, "request timeout", result.Error)
}

func TestPollDevice_ExcludeMacs(t *testing.T) {
	cli := &fakeCLI{responses: map[string]entities.Outcome[CLIResponse]{
		"sw1": entities.Success(CLIResponse{Platform: "ios", Output: iosTable}),
	}}
	svc := NewPollServiceWith(cli, sources(nil), 1)

	cfg := entities.SwitchConfig{Name: "sw1", ExcludeMacs: []string{"0011.2233.4455"}}
	result := svc.PollDevice(context.Background(), cfg)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "0011.2233.4466", result.Entries[0].Mac)
}

func TestRun_IsolatesFailures(t *testing.T) {
	cli := &fakeCLI{responses: map[string]entities.Outcome[CLIResponse]{
		"sw1": entities.Success(CLIResponse{Platform: "ios", Output: iosTable}),
		"sw2": entities.Failure[CLIResponse](errors.New("timeout waiting for Username:")),
		"nx1": entities.Success(CLIResponse{Platform: "nxos", Output: nxosTable}),
	}}
	src := fakeSource{records: []entities.RawRecord{{Mac: "aa:bb:cc:dd:ee:ff"}}}
	svc := NewPollServiceWith(cli, sources(map[string]fakeSource{"sw3": src}), 2)

	devices := []entities.SwitchConfig{
		{Name: "sw1", Source: "cli"},
		{Name: "sw2", Source: "cli"},
		{Name: "nx1", Source: "cli"},
		{Name: "sw3", Source: "file"},
	}
	agg := svc.Run(context.Background(), devices)

	assert.Equal(t, 4, agg.Len())
	summary := agg.Summary()
	assert.Equal(t, 3, summary.SuccessfulDevices)
	assert.Equal(t, 1, summary.FailedDevices)
	assert.Equal(t, 4, summary.TotalEntries)

	failed, ok := agg.Result("sw2")
	require.True(t, ok)
	assert.True(t, failed.Failed())
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cli := &fakeCLI{}
	svc := NewPollServiceWith(cli, sources(nil), 1)

	agg := svc.Run(ctx, []entities.SwitchConfig{{Name: "sw1"}, {Name: "sw2"}})
	assert.Equal(t, 2, agg.Summary().FailedDevices)
	assert.Empty(t, cli.calls)
}

func TestCheck(t *testing.T) {
	cli := &fakeCLI{checkErrs: map[string]error{"sw2": errors.New("auth failed")}}
	svc := NewPollServiceWith(cli, sources(map[string]fakeSource{"sw3": {}}), 3)

	results := svc.Check(context.Background(), []entities.SwitchConfig{
		{Name: "sw1", Target: "10.0.0.1"},
		{Name: "sw2", Target: "10.0.0.2"},
		{Name: "sw3", Target: "10.0.0.3", Source: "snmp"},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].Reachable)
	assert.False(t, results[1].Reachable)
	assert.EqualError(t, results[1].Err, "auth failed")
	assert.True(t, results[2].Reachable)
	assert.Equal(t, 2, CountReachable(results))
}

func TestExcludeMacs_NoList(t *testing.T) {
	entries := []entities.CanonicalEntry{{Mac: "0011.2233.4455"}}
	assert.Equal(t, entries, excludeMacs(entries, nil))
}

func TestDefaultRecordSources(t *testing.T) {
	_, err := DefaultRecordSources(entities.SwitchConfig{Source: "snmp", Target: "10.0.0.1"})
	assert.NoError(t, err)
	_, err = DefaultRecordSources(entities.SwitchConfig{Source: "file", RecordsFile: "dump.json"})
	assert.NoError(t, err)
	_, err = DefaultRecordSources(entities.SwitchConfig{Source: "cli"})
	assert.Error(t, err)
}
