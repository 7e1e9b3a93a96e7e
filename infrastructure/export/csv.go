package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/services"
)

// csvHeaders returns the CSV column headers
func csvHeaders() []string {
	return []string{"hostname", "ip_address", "platform", "vlan", "mac_address", "type", "port"}
}

// entryToCSVRow converts one entry of a device to a CSV row (matching csvHeaders order)
func entryToCSVRow(hostname, address, platform string, e entities.CanonicalEntry) []string {
	return append([]string{hostname, address, platform}, e.Fields()...)
}

// DefaultFilename returns the timestamped export name for t
func DefaultFilename(t time.Time) string {
	return fmt.Sprintf("mac_addresses_%s.csv", t.Format("20060102_150405"))
}

// inventoryIndex maps device IDs to their configuration
func inventoryIndex(devices []entities.SwitchConfig) map[string]entities.SwitchConfig {
	index := make(map[string]entities.SwitchConfig, len(devices))
	for _, d := range devices {
		index[d.DeviceID()] = d
	}
	return index
}

// WriteCSV writes the entries of every successful device. Failed devices
// contribute no rows. Returns the number of rows written.
func WriteCSV(w io.Writer, agg *services.Aggregator, devices []entities.SwitchConfig) (int, error) {
	index := inventoryIndex(devices)
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders()); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	rows := 0
	for _, id := range agg.DeviceIDs() {
		result, _ := agg.Result(id)
		if result.Failed() {
			continue
		}
		cfg := index[id]
		platform := result.Platform
		if platform == "" {
			platform = cfg.Platform
		}
		for _, entry := range result.Entries {
			if err := writer.Write(entryToCSVRow(id, cfg.Target, platform, entry)); err != nil {
				return rows, fmt.Errorf("failed to write CSV row: %w", err)
			}
			rows++
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return rows, nil
}

// SaveCSV writes the export to path
func SaveCSV(path string, agg *services.Aggregator, devices []entities.SwitchConfig) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	rows, err := WriteCSV(f, agg, devices)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return rows, err
}
