package entities

// Entry types emitted in CanonicalEntry.Type
const (
	EntryDynamic = "dynamic"
	EntryStatic  = "static"
)

// CanonicalEntry is one normalized forwarding-table binding.
// Mac is always "xxxx.xxxx.xxxx" in lowercase and Type is EntryDynamic or EntryStatic.
type CanonicalEntry struct {
	Vlan string
	Mac  string
	Type string
	Port string
}

// Fields returns the entry values in export order: vlan, mac, type, port
func (e CanonicalEntry) Fields() []string {
	return []string{e.Vlan, e.Mac, e.Type, e.Port}
}
