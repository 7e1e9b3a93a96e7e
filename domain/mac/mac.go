// Package mac canonicalizes MAC addresses and forwarding entry types.
// Every parser builds its entries through NewEntry.
package mac

import (
	"strings"

	"github.com/carlosrabelo/macscan/domain/entities"
)

const hexDigits = 12

var delimiters = strings.NewReplacer(":", "", ".", "", "-", "")

// Normalize converts a colon, dot or hyphen delimited MAC address to
// "aabb.ccdd.eeff". ok is false unless exactly 12 hex digits remain.
func Normalize(raw string) (string, bool) {
	plain := strings.ToLower(delimiters.Replace(strings.TrimSpace(raw)))
	if len(plain) != hexDigits {
		return "", false
	}
	for i := 0; i < len(plain); i++ {
		c := plain[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return plain[0:4] + "." + plain[4:8] + "." + plain[8:12], true
}

// ResolveType maps a free-text type column to "dynamic" or "static".
// Matching is a case-insensitive substring test; anything else is not ok.
func ResolveType(token string) (string, bool) {
	lower := strings.ToLower(token)
	switch {
	case strings.Contains(lower, entities.EntryDynamic):
		return entities.EntryDynamic, true
	case strings.Contains(lower, entities.EntryStatic):
		return entities.EntryStatic, true
	}
	return "", false
}

// ResolveStatic maps a getter static flag to an entry type
func ResolveStatic(static bool) string {
	if static {
		return entities.EntryStatic
	}
	return entities.EntryDynamic
}

// NewEntry builds a CanonicalEntry, failing when the MAC is malformed
// or the type cannot be resolved.
func NewEntry(vlan, rawMac, entryType, port string) (entities.CanonicalEntry, bool) {
	canonical, ok := Normalize(rawMac)
	if !ok {
		return entities.CanonicalEntry{}, false
	}
	resolved, ok := ResolveType(entryType)
	if !ok {
		return entities.CanonicalEntry{}, false
	}
	return entities.CanonicalEntry{
		Vlan: vlan,
		Mac:  canonical,
		Type: resolved,
		Port: port,
	}, true
}
