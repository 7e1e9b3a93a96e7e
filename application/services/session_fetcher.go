package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/macscan/domain/entities"
	"github.com/carlosrabelo/macscan/infrastructure/transport"
	"github.com/carlosrabelo/macscan/platform"
)

// CLIResponse is the raw table text of one device and the driver that read it
type CLIResponse struct {
	Platform string
	Output   string
}

// CLIFetcher reads forwarding tables over an interactive session
type CLIFetcher interface {
	FetchMacTable(ctx context.Context, cfg entities.SwitchConfig) entities.Outcome[CLIResponse]
	CheckConnectivity(ctx context.Context, cfg entities.SwitchConfig) error
}

// SessionFetcher implements CLIFetcher on top of the transport session registry
type SessionFetcher struct {
	clientFor func(cfg entities.SwitchConfig) transport.Client
}

// NewSessionFetcher creates a fetcher that opens sessions through transport.Get
func NewSessionFetcher() *SessionFetcher {
	return &SessionFetcher{clientFor: transport.Get}
}

// NewSessionFetcherWithClients creates a fetcher with a custom client provider
func NewSessionFetcherWithClients(clientFor func(cfg entities.SwitchConfig) transport.Client) *SessionFetcher {
	return &SessionFetcher{clientFor: clientFor}
}

// open resolves the driver and returns a connected adapter. With platform
// auto the session logs in with the default dialogue and the driver is
// detected from "show version".
func (f *SessionFetcher) open(cfg entities.SwitchConfig) (*transport.SwitchAdapter, platform.SwitchDriver, error) {
	log := logrus.WithField("device", cfg.DeviceID())
	client := f.clientFor(cfg)
	adapter := transport.NewSwitchAdapter(client, cfg.DeviceID())

	if cfg.Platform == "auto" {
		driver, err := platform.Detect(adapter)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to auto-detect switch platform: %w", err)
		}
		log.Debugf("Platform auto-detected as %s", driver.Name())
		return adapter, driver, nil
	}

	driver, err := platform.Get(cfg.Platform)
	if err != nil {
		return nil, nil, err
	}
	if authClient, ok := client.(transport.AuthConfigurable); ok {
		authClient.SetAuthSequence(driver.GetAuthenticationSequence(cfg.Username, cfg.Password, cfg.EnablePassword))
	}
	if !adapter.IsConnected() {
		if err := adapter.Connect(); err != nil {
			return nil, nil, err
		}
	}
	return adapter, driver, nil
}

// FetchMacTable runs the family's show command and returns its raw output
func (f *SessionFetcher) FetchMacTable(ctx context.Context, cfg entities.SwitchConfig) entities.Outcome[CLIResponse] {
	if err := ctx.Err(); err != nil {
		return entities.Failure[CLIResponse](err)
	}
	adapter, driver, err := f.open(cfg)
	if err != nil {
		return entities.Failure[CLIResponse](err)
	}
	output, err := driver.GetMacTable(adapter, cfg)
	if err != nil {
		return entities.Failure[CLIResponse](err)
	}
	return entities.Success(CLIResponse{Platform: driver.Name(), Output: output})
}

// CheckConnectivity logs in and runs the family's version command
func (f *SessionFetcher) CheckConnectivity(ctx context.Context, cfg entities.SwitchConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	adapter, driver, err := f.open(cfg)
	if err != nil {
		return err
	}
	output, err := adapter.ExecuteCommand(driver.VersionCommand())
	if err != nil {
		return fmt.Errorf("version command failed: %w", err)
	}
	if cfg.IsRawOutputEnabled() {
		logrus.WithField("device", cfg.DeviceID()).Infof("Raw output of '%s':\n%s", driver.VersionCommand(), output)
	}
	return nil
}
