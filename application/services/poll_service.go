package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/ports"
	"github.com/carlosrabelo/macscan/domain/services"
	"github.com/carlosrabelo/macscan/infrastructure/dumpfile"
	"github.com/carlosrabelo/macscan/infrastructure/snmp"
	"github.com/carlosrabelo/macscan/platform"
	"github.com/carlosrabelo/macscan/platform/getter"
)

const defaultConcurrency = 10

// RecordSourceFactory builds the getter of a device
type RecordSourceFactory func(cfg entities.SwitchConfig) (ports.RecordSource, error)

// DefaultRecordSources maps the snmp and file sources to their getters
func DefaultRecordSources(cfg entities.SwitchConfig) (ports.RecordSource, error) {
	switch cfg.Source {
	case "snmp":
		return snmp.NewBridgeGetter(cfg), nil
	case "file":
		return dumpfile.NewSource(cfg), nil
	}
	return nil, fmt.Errorf("source %q has no record getter", cfg.Source)
}

// PollService runs one polling round over the inventory
type PollService struct {
	cli         CLIFetcher
	records     RecordSourceFactory
	concurrency int
}

// NewPollService creates a poll service with the production collaborators
func NewPollService(concurrency int) *PollService {
	return NewPollServiceWith(NewSessionFetcher(), DefaultRecordSources, concurrency)
}

// NewPollServiceWith creates a poll service with explicit collaborators
func NewPollServiceWith(cli CLIFetcher, records RecordSourceFactory, concurrency int) *PollService {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &PollService{cli: cli, records: records, concurrency: concurrency}
}

// Run polls every device and returns the aggregated round. A failing
// device only produces a failure result; the other devices are still polled.
// Devices not started before ctx is cancelled are reported as failures.
func (p *PollService) Run(ctx context.Context, devices []entities.SwitchConfig) *services.Aggregator {
	agg := services.NewAggregator()

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, cfg := range devices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				agg.AddDeviceResult(cfg.DeviceID(), entities.FailureResult(err.Error()))
				return nil
			}
			agg.AddDeviceResult(cfg.DeviceID(), p.PollDevice(ctx, cfg))
			return nil
		})
	}
	_ = g.Wait()

	summary := agg.Summary()
	logrus.Debugf("Round finished: %d successful, %d failed, %d entries",
		summary.SuccessfulDevices, summary.FailedDevices, summary.TotalEntries)
	return agg
}

// PollDevice fetches and normalizes the table of one device
func (p *PollService) PollDevice(ctx context.Context, cfg entities.SwitchConfig) entities.DeviceResult {
	log := logrus.WithFields(logrus.Fields{"device": cfg.DeviceID(), "source": cfg.Source})

	var (
		entries  []entities.CanonicalEntry
		platName string
		err      error
	)
	switch cfg.Source {
	case "snmp", "file":
		entries, err = p.fromRecords(ctx, cfg)
		platName = cfg.Platform
	default:
		entries, platName, err = p.fromCLI(ctx, cfg)
	}
	if err != nil {
		log.Debugf("Poll failed: %v", err)
		return entities.FailureResult(err.Error())
	}

	kept := excludeMacs(entries, cfg.ExcludeMacs)
	log.Debugf("Parsed %d entries, %d after exclusions", len(entries), len(kept))
	return entities.SuccessResult(kept, platName)
}

func (p *PollService) fromCLI(ctx context.Context, cfg entities.SwitchConfig) ([]entities.CanonicalEntry, string, error) {
	resp, err := p.cli.FetchMacTable(ctx, cfg).Unwrap()
	if err != nil {
		return nil, "", err
	}
	family, err := platform.FamilyOf(resp.Platform)
	if err != nil {
		return nil, "", err
	}
	entries, err := platform.ParseMacTable(family, resp.Output)
	if err != nil {
		return nil, "", err
	}
	return entries, resp.Platform, nil
}

func (p *PollService) fromRecords(ctx context.Context, cfg entities.SwitchConfig) ([]entities.CanonicalEntry, error) {
	source, err := p.records(cfg)
	if err != nil {
		return nil, err
	}
	records, err := fetchRecords(ctx, source).Unwrap()
	if err != nil {
		return nil, err
	}
	return getter.ParseRecords(records), nil
}

func fetchRecords(ctx context.Context, source ports.RecordSource) entities.Outcome[[]entities.RawRecord] {
	records, err := source.FetchRecords(ctx)
	if err != nil {
		return entities.Failure[[]entities.RawRecord](err)
	}
	return entities.Success(records)
}

// excludeMacs drops entries whose canonical MAC is listed
func excludeMacs(entries []entities.CanonicalEntry, exclude []string) []entities.CanonicalEntry {
	if len(exclude) == 0 {
		return entries
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, m := range exclude {
		skip[m] = struct{}{}
	}
	kept := make([]entities.CanonicalEntry, 0, len(entries))
	for _, e := range entries {
		if _, found := skip[e.Mac]; !found {
			kept = append(kept, e)
		}
	}
	return kept
}

// CheckResult is the connectivity status of one device
type CheckResult struct {
	DeviceID  string
	Target    string
	Reachable bool
	Err       error
}

// Check logs into every CLI device and runs its version command. Getter
// devices are checked by fetching their records.
func (p *PollService) Check(ctx context.Context, devices []entities.SwitchConfig) []CheckResult {
	results := make([]CheckResult, len(devices))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, cfg := range devices {
		g.Go(func() error {
			err := p.checkDevice(ctx, cfg)
			results[i] = CheckResult{DeviceID: cfg.DeviceID(), Target: cfg.Target, Reachable: err == nil, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *PollService) checkDevice(ctx context.Context, cfg entities.SwitchConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch cfg.Source {
	case "snmp", "file":
		source, err := p.records(cfg)
		if err != nil {
			return err
		}
		_, err = source.FetchRecords(ctx)
		return err
	}
	return p.cli.CheckConnectivity(ctx, cfg)
}

// CountReachable returns how many check results succeeded
func CountReachable(results []CheckResult) int {
	n := 0
	for _, r := range results {
		if r.Reachable {
			n++
		}
	}
	return n
}
