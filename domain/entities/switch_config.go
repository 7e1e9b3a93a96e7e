package entities

// SwitchConfig defines one inventory entry after defaults were applied
type SwitchConfig struct {
	Name           string   `yaml:"name"`
	Target         string   `yaml:"target"`
	Platform       string   `yaml:"platform"`
	Transport      string   `yaml:"transport"`
	Source         string   `yaml:"source"`
	Port           int      `yaml:"port"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	EnablePassword string   `yaml:"enable_password"`
	SnmpCommunity  string   `yaml:"snmp_community"`
	RecordsFile    string   `yaml:"records_file"`
	ExcludeMacs    []string `yaml:"exclude_macs"`
	VerbosityLevel int      `yaml:"-"`
}

// DeviceID returns the identity used to key results
func (sc SwitchConfig) DeviceID() string {
	if sc.Name != "" {
		return sc.Name
	}
	return sc.Target
}

// IsRawOutputEnabled returns true if raw switch output is enabled
func (sc SwitchConfig) IsRawOutputEnabled() bool {
	return sc.VerbosityLevel == 2 || sc.VerbosityLevel == 3
}
