package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/mac"
)

// Supported values
const (
	PlatformIOS  = "ios"
	PlatformNXOS = "nxos"
	PlatformAuto = "auto"

	TransportTelnet = "telnet"
	TransportSSH    = "ssh"

	SourceCLI  = "cli"
	SourceSNMP = "snmp"
	SourceFile = "file"

	DefaultConcurrency = 10
)

// Environment variables overriding the global credentials
const (
	EnvUsername       = "MACSCAN_USERNAME"
	EnvPassword       = "MACSCAN_PASSWORD"
	EnvEnablePassword = "MACSCAN_ENABLE_PASSWORD"
	EnvSnmpCommunity  = "MACSCAN_SNMP_COMMUNITY"
)

// ErrNoDevices is returned when the inventory lists no switches
var ErrNoDevices = errors.New("no switches defined in the YAML configuration")

// Config defines the global configuration
type Config struct {
	Platform       string                  `yaml:"platform"`
	Transport      string                  `yaml:"transport"`
	Source         string                  `yaml:"source"`
	Username       string                  `yaml:"username"`
	Password       string                  `yaml:"password"`
	EnablePassword string                  `yaml:"enable_password"`
	SnmpCommunity  string                  `yaml:"snmp_community"`
	Concurrency    int                     `yaml:"concurrency"`
	ExcludeMacs    []string                `yaml:"exclude_macs"`
	Log            LogConfig               `yaml:"log"`
	Switches       []entities.SwitchConfig `yaml:"switches"`
}

// LogConfig holds the log output settings of the inventory file
type LogConfig struct {
	File       string `yaml:"file"`
	Format     string `yaml:"format"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// ValidateLogFormat accepts the formats the logger understands; empty means text
func ValidateLogFormat(format string) error {
	switch format {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("log format %s is invalid, must be 'text' or 'json'", format)
	}
}

func validatePlatform(platform string) error {
	switch platform {
	case PlatformIOS, PlatformNXOS, PlatformAuto:
		return nil
	default:
		return fmt.Errorf("platform %s is invalid, must be 'ios', 'nxos', or 'auto'", platform)
	}
}

func validateTransport(transport string) error {
	switch transport {
	case TransportTelnet, TransportSSH:
		return nil
	default:
		return fmt.Errorf("transport %s is invalid, must be 'telnet' or 'ssh'", transport)
	}
}

func validateSource(source string) error {
	switch source {
	case SourceCLI, SourceSNMP, SourceFile:
		return nil
	default:
		return fmt.Errorf("source %s is invalid, must be 'cli', 'snmp', or 'file'", source)
	}
}

func normalizeValue(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}

// NormalizeMacList canonicalizes and deduplicates a list of MAC addresses
func NormalizeMacList(macs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(macs))
	out := make([]string, 0, len(macs))
	for _, raw := range macs {
		canonical, ok := mac.Normalize(raw)
		if !ok {
			return nil, fmt.Errorf("invalid MAC address %q", raw)
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv(EnvEnablePassword); v != "" {
		cfg.EnablePassword = v
	}
	if v := os.Getenv(EnvSnmpCommunity); v != "" {
		cfg.SnmpCommunity = v
	}
}

func defaultPort(sw entities.SwitchConfig) int {
	switch {
	case sw.Source == SourceSNMP:
		return 161
	case sw.Transport == TransportSSH:
		return 22
	default:
		return 23
	}
}

// Load loads and validates configuration from a YAML file
func Load(yamlFile string, verbosityLevel int) (*Config, error) {
	data, err := os.ReadFile(yamlFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", yamlFile, err)
	}
	return Parse(data, filepath.Dir(yamlFile), verbosityLevel)
}

// Parse validates a YAML inventory. Relative records_file paths are resolved against baseDir.
func Parse(data []byte, baseDir string, verbosityLevel int) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	applyEnvOverrides(&cfg)

	log := logrus.WithField("component", "config")

	cfg.Platform = normalizeValue(cfg.Platform, PlatformIOS)
	if err := validatePlatform(cfg.Platform); err != nil {
		return nil, err
	}
	cfg.Transport = normalizeValue(cfg.Transport, TransportSSH)
	if err := validateTransport(cfg.Transport); err != nil {
		return nil, err
	}
	cfg.Source = normalizeValue(cfg.Source, SourceCLI)
	if err := validateSource(cfg.Source); err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if err := ValidateLogFormat(cfg.Log.Format); err != nil {
		return nil, err
	}
	if cfg.Log.MaxSize < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAge < 0 {
		return nil, fmt.Errorf("log rotation limits must not be negative")
	}
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) && baseDir != "" {
		cfg.Log.File = filepath.Join(baseDir, cfg.Log.File)
	}

	globalExcludes, err := NormalizeMacList(cfg.ExcludeMacs)
	if err != nil {
		return nil, fmt.Errorf("global exclude_macs: %w", err)
	}
	cfg.ExcludeMacs = globalExcludes

	log.Debugf("Global values: Platform=%s, Transport=%s, Source=%s, Concurrency=%d, ExcludeMacs=%v",
		cfg.Platform, cfg.Transport, cfg.Source, cfg.Concurrency, cfg.ExcludeMacs)

	if len(cfg.Switches) == 0 {
		return nil, ErrNoDevices
	}

	seen := make(map[string]int, len(cfg.Switches))
	for i, sw := range cfg.Switches {
		sw.Target = strings.TrimSpace(sw.Target)
		if sw.Target == "" {
			return nil, fmt.Errorf("target is required for switch %d", i)
		}
		sw.Name = strings.TrimSpace(sw.Name)
		if sw.Name == "" {
			sw.Name = sw.Target
		}
		if prev, dup := seen[sw.Name]; dup {
			return nil, fmt.Errorf("switch %d reuses name %s of switch %d", i, sw.Name, prev)
		}
		seen[sw.Name] = i

		swLog := log.WithField("device", sw.Name)

		sw.Platform = normalizeValue(sw.Platform, cfg.Platform)
		if err := validatePlatform(sw.Platform); err != nil {
			return nil, fmt.Errorf("invalid platform for switch %s: %w", sw.Name, err)
		}
		sw.Transport = normalizeValue(sw.Transport, cfg.Transport)
		if err := validateTransport(sw.Transport); err != nil {
			return nil, fmt.Errorf("invalid transport for switch %s: %w", sw.Name, err)
		}
		sw.Source = normalizeValue(sw.Source, cfg.Source)
		if err := validateSource(sw.Source); err != nil {
			return nil, fmt.Errorf("invalid source for switch %s: %w", sw.Name, err)
		}

		if sw.Username == "" {
			sw.Username = cfg.Username
		}
		if sw.Password == "" {
			sw.Password = cfg.Password
		}
		if sw.EnablePassword == "" {
			sw.EnablePassword = cfg.EnablePassword
		}
		if sw.SnmpCommunity == "" {
			sw.SnmpCommunity = cfg.SnmpCommunity
		}

		switch sw.Source {
		case SourceCLI:
			if sw.Username == "" {
				return nil, fmt.Errorf("username is required for switch %s", sw.Name)
			}
			if sw.Password == "" {
				return nil, fmt.Errorf("password is required for switch %s", sw.Name)
			}
			// each family answers telnet with a different login prompt
			if sw.Platform == PlatformAuto && sw.Transport == TransportTelnet {
				return nil, fmt.Errorf("platform auto needs transport ssh on switch %s", sw.Name)
			}
			if sw.Platform == PlatformIOS && sw.Transport == TransportTelnet && sw.EnablePassword == "" {
				return nil, fmt.Errorf("enable_password is required for telnet to IOS switch %s", sw.Name)
			}
		case SourceSNMP:
			if sw.Platform == PlatformAuto {
				return nil, fmt.Errorf("platform auto needs source cli on switch %s", sw.Name)
			}
			if sw.SnmpCommunity == "" {
				return nil, fmt.Errorf("snmp_community is required for switch %s", sw.Name)
			}
		case SourceFile:
			if sw.Platform == PlatformAuto {
				return nil, fmt.Errorf("platform auto needs source cli on switch %s", sw.Name)
			}
			if sw.RecordsFile == "" {
				return nil, fmt.Errorf("records_file is required for switch %s", sw.Name)
			}
			if !filepath.IsAbs(sw.RecordsFile) && baseDir != "" {
				sw.RecordsFile = filepath.Join(baseDir, sw.RecordsFile)
			}
		}

		if sw.Port == 0 {
			sw.Port = defaultPort(sw)
		}
		if sw.Port < 1 || sw.Port > 65535 {
			return nil, fmt.Errorf("port %d is invalid for switch %s", sw.Port, sw.Name)
		}

		excludes, err := NormalizeMacList(append(append([]string{}, cfg.ExcludeMacs...), sw.ExcludeMacs...))
		if err != nil {
			return nil, fmt.Errorf("exclude_macs for switch %s: %w", sw.Name, err)
		}
		sw.ExcludeMacs = excludes
		sw.VerbosityLevel = verbosityLevel

		swLog.Debugf("Final configuration: Target=%s, Platform=%s, Transport=%s, Source=%s, Port=%d, ExcludeMacs=%v",
			sw.Target, sw.Platform, sw.Transport, sw.Source, sw.Port, sw.ExcludeMacs)

		cfg.Switches[i] = sw
	}

	return &cfg, nil
}

// Select returns every switch, or only the one whose name or target matches target
func (c *Config) Select(target string) ([]entities.SwitchConfig, error) {
	if target == "" {
		return c.Switches, nil
	}
	for _, sw := range c.Switches {
		if sw.Name == target || sw.Target == target {
			return []entities.SwitchConfig{sw}, nil
		}
	}
	return nil, fmt.Errorf("target %s not registered in the YAML configuration", target)
}
