package nxos

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/ports"
)

const (
	driverName      = "nxos"
	macTableCommand = "show mac address-table"
	versionCommand  = "show version | head lines 10"
)

// Driver implements the SwitchDriver behaviour for Cisco NX-OS switches.
type Driver struct {
	log *logrus.Entry
}

// New creates a new NX-OS driver instance.
func New() *Driver {
	return &Driver{log: logrus.WithField("platform", driverName)}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect inspects the device to determine whether it is running NX-OS.
func (d *Driver) Detect(repo ports.SwitchRepository) (bool, error) {
	if !repo.IsConnected() {
		if err := repo.Connect(); err != nil {
			return false, err
		}
	}
	output, err := repo.ExecuteCommand("show version")
	if err != nil {
		return false, err
	}
	lower := strings.ToLower(output)
	return strings.Contains(lower, "nx-os") || strings.Contains(lower, "nexus"), nil
}

// GetAuthenticationSequence returns the NX-OS telnet login dialogue.
// NX-OS users land in privileged mode, so there is no enable step.
func (d *Driver) GetAuthenticationSequence(username, password, _ string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "login:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n"},
		{WaitFor: "#", SendCmd: "terminal length 0\n"},
		{WaitFor: "#", SendCmd: ""},
	}
}

// VersionCommand returns the command used by connectivity checks.
func (d *Driver) VersionCommand() string {
	return versionCommand
}

// MacTableCommand returns the forwarding table show command.
func (d *Driver) MacTableCommand() string {
	return macTableCommand
}

// ParseMacTable normalizes raw "show mac address-table" output.
func (d *Driver) ParseMacTable(output string) []entities.CanonicalEntry {
	return ParseMacTable(output)
}

// GetMacTable retrieves the raw MAC address table text.
func (d *Driver) GetMacTable(repo ports.SwitchRepository, cfg entities.SwitchConfig) (string, error) {
	output, err := repo.ExecuteCommand(macTableCommand)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve MAC table: %w", err)
	}
	if isNXOSCommandError(output) {
		return "", fmt.Errorf("command '%s' unsupported by switch", macTableCommand)
	}
	if cfg.IsRawOutputEnabled() {
		d.log.WithField("device", cfg.DeviceID()).Infof("Raw output of '%s':\n%s", macTableCommand, output)
	}
	return output, nil
}
