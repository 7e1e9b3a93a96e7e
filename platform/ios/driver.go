package ios

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/domain/ports"
)

const (
	driverName      = "ios"
	macTableCommand = "show mac address-table"
	versionCommand  = "show version | include Software"
)

// Driver implements the SwitchDriver behaviour for Cisco IOS switches.
type Driver struct {
	log *logrus.Entry
}

// New creates a new IOS driver instance.
func New() *Driver {
	return &Driver{log: logrus.WithField("platform", driverName)}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect inspects the device to determine whether it is running IOS.
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
	return strings.Contains(lower, "cisco ios") && !strings.Contains(lower, "nx-os"), nil
}

// GetAuthenticationSequence returns the IOS telnet login dialogue.
func (d *Driver) GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "Username:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n"},
		{WaitFor: ">", SendCmd: "enable\n"},
		{WaitFor: "Password:", SendCmd: enablePassword + "\n"},
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
	if isIOSCommandError(output) {
		return "", fmt.Errorf("command '%s' unsupported by switch", macTableCommand)
	}
	if cfg.IsRawOutputEnabled() {
		d.log.WithField("device", cfg.DeviceID()).Infof("Raw output of '%s':\n%s", macTableCommand, output)
	}
	return output, nil
}
