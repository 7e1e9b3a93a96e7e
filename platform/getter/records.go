// Package getter normalizes structured MAC table getter responses.
package getter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/mac"
)

// ParseRecords converts getter records to canonical entries.
// Inactive records and malformed MACs are skipped. Static entries are
// kept, unlike the CLI parsers which only report learned bindings.
func ParseRecords(records []entities.RawRecord) []entities.CanonicalEntry {
	entries := make([]entities.CanonicalEntry, 0, len(records))
	for _, record := range records {
		if !record.IsActive() {
			continue
		}
		entry, ok := mac.NewEntry(
			record.VlanString(),
			record.Mac,
			mac.ResolveStatic(record.IsStatic()),
			record.InterfaceName(),
		)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

type getterPayload struct {
	MacAddressTable []entities.RawRecord `json:"mac_address_table"`
}

// DecodeRecords reads a getter dump. Both a bare JSON array of records and
// an object wrapping it under "mac_address_table" are accepted.
func DecodeRecords(r io.Reader) ([]entities.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read getter payload: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty getter payload")
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if data[0] == '[' {
		var records []entities.RawRecord
		if err := decoder.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to parse getter records: %w", err)
		}
		return records, nil
	}

	var payload getterPayload
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse getter payload: %w", err)
	}
	if payload.MacAddressTable == nil {
		return nil, fmt.Errorf("getter payload has no mac_address_table")
	}
	return payload.MacAddressTable, nil
}
