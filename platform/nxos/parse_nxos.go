package nxos

import (
	"strings"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/mac"
)

// NX-OS marks learned rows with a leading '*'
const (
	dynamicMarker     = "*"
	minMacTableFields = 7
)

var cmdErrorHints = []string{"invalid command", "incomplete command", "syntax error", "% invalid"}

// ParseMacTable extracts dynamic entries from NX-OS output such as
//
//	*    1     000c.2937.a1ae   dynamic  NA         F      F    Eth1/1
//
// The port is always the last column since the age and flag columns vary.
func ParseMacTable(output string) []entities.CanonicalEntry {
	entries := make([]entities.CanonicalEntry, 0)
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, dynamicMarker) {
			continue
		}
		if !strings.Contains(strings.ToLower(trimmed), entities.EntryDynamic) {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < minMacTableFields {
			continue
		}
		entry, ok := mac.NewEntry(fields[1], fields[2], entities.EntryDynamic, fields[len(fields)-1])
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func isNXOSCommandError(output string) bool {
	lower := strings.ToLower(output)
	for _, keyword := range cmdErrorHints {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
