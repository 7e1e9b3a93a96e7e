package platform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/ports"
	"github.com/carlosrabelo/macscan/platform/ios"
	"github.com/carlosrabelo/macscan/platform/nxos"
)

// Family is the CLI dialect of a switch forwarding table.
type Family int

const (
	// FamilyA prints a fixed-column "Vlan / Mac Address / Type / Ports" table (IOS).
	FamilyA Family = iota + 1
	// FamilyB prints '*'-prefixed rows with the port in the last column (NX-OS).
	FamilyB
)

// ErrUnknownFamily is returned for a family tag outside the supported dialects.
var ErrUnknownFamily = errors.New("unknown platform family")

func (f Family) String() string {
	switch f {
	case FamilyA:
		return "familyA"
	case FamilyB:
		return "familyB"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// SwitchDriver defines the behaviour required to support a switching platform.
type SwitchDriver interface {
	Name() string
	Detect(repo ports.SwitchRepository) (bool, error)

	// GetAuthenticationSequence returns the login sequence for this platform
	GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt

	VersionCommand() string
	MacTableCommand() string
	GetMacTable(repo ports.SwitchRepository, cfg entities.SwitchConfig) (string, error)
	ParseMacTable(output string) []entities.CanonicalEntry
}

type registration struct {
	family Family
	driver SwitchDriver
}

var registry = []registration{
	{family: FamilyA, driver: ios.New()},
	{family: FamilyB, driver: nxos.New()},
}

// ParseMacTable dispatches raw CLI text to the driver registered for family.
func ParseMacTable(family Family, output string) ([]entities.CanonicalEntry, error) {
	for _, reg := range registry {
		if reg.family == family {
			return reg.driver.ParseMacTable(output), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
}

// Get returns a driver by normalized platform name.
func Get(name string) (SwitchDriver, error) {
	normalized := normalizeName(name)
	for _, reg := range registry {
		if reg.driver.Name() == normalized {
			return reg.driver, nil
		}
	}
	return nil, fmt.Errorf("unknown switch platform: %s", name)
}

// FamilyOf maps a platform name to its CLI dialect.
func FamilyOf(name string) (Family, error) {
	normalized := normalizeName(name)
	for _, reg := range registry {
		if reg.driver.Name() == normalized {
			return reg.family, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
}

// Available returns all registered drivers.
func Available() []SwitchDriver {
	out := make([]SwitchDriver, 0, len(registry))
	for _, reg := range registry {
		out = append(out, reg.driver)
	}
	return out
}

// Detect tries all registered drivers until one matches.
func Detect(repo ports.SwitchRepository) (SwitchDriver, error) {
	var lastErr error
	for _, reg := range registry {
		matched, err := reg.driver.Detect(repo)
		if err != nil {
			lastErr = err
			continue
		}
		if matched {
			return reg.driver, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to detect switch platform")
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
