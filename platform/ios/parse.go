package ios

import (
	"strings"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/mac"
)

const minMacTableFields = 4

var (
	headerPrefixes = []string{
		"vlan",
		"----",
		"mac address table",
		"total mac addresses",
		"multicast entries",
		"unicast entries",
		"legend",
	}
	commandErrHints = []string{
		"invalid input",
		"unknown command",
		"incomplete command",
		"ambiguous command",
		"unrecognized command",
		"invalid command",
		"syntax error",
		"cannot find command",
	}
)

// ParseMacTable extracts dynamic entries from the fixed-column
// "Vlan  Mac Address  Type  Ports" table printed by IOS.
// Rows keep their output order; short rows and bad MACs are skipped.
func ParseMacTable(output string) []entities.CanonicalEntry {
	entries := make([]entities.CanonicalEntry, 0)
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isHeaderLine(trimmed) {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < minMacTableFields {
			continue
		}
		if !strings.Contains(strings.ToLower(fields[2]), entities.EntryDynamic) {
			continue
		}
		entry, ok := mac.NewEntry(fields[0], fields[1], fields[2], fields[3])
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range headerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return isSeparatorLine(line)
}

func isIOSCommandError(output string) bool {
	lower := strings.ToLower(output)
	for _, keyword := range commandErrHints {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if len(trimmed) < 3 {
		return false
	}
	for _, ch := range trimmed {
		if ch != '-' && ch != '=' && ch != '+' && ch != '*' && ch != ' ' {
			return false
		}
	}
	return true
}
