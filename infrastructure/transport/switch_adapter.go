package transport

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/macscan/domain/entities"
)

// Client is an interactive CLI session with a switch
type Client interface {
	Connect() error
	Disconnect()
	ExecuteCommand(cmd string) (string, error)
	IsConnected() bool
}

// AuthConfigurable allows setting authentication prompts after client creation
type AuthConfigurable interface {
	SetAuthSequence(prompts []entities.AuthPrompt)
}

// SwitchAdapter exposes a Client as the SwitchRepository of one device.
// Commands open the session on first use.
type SwitchAdapter struct {
	client   Client
	deviceID string
	log      *logrus.Entry
}

// NewSwitchAdapter creates an adapter for the session of deviceID
func NewSwitchAdapter(client Client, deviceID string) *SwitchAdapter {
	return &SwitchAdapter{
		client:   client,
		deviceID: deviceID,
		log:      logrus.WithField("device", deviceID),
	}
}

// Connect opens the session
func (s *SwitchAdapter) Connect() error {
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("%s: %w", s.deviceID, err)
	}
	return nil
}

// Disconnect closes the session
func (s *SwitchAdapter) Disconnect() {
	s.client.Disconnect()
}

// ExecuteCommand runs cmd, connecting first when needed
func (s *SwitchAdapter) ExecuteCommand(cmd string) (string, error) {
	if !s.client.IsConnected() {
		s.log.Debug("Session closed, reconnecting")
		if err := s.Connect(); err != nil {
			return "", err
		}
	}
	return s.client.ExecuteCommand(cmd)
}

// IsConnected reports whether the session is open
func (s *SwitchAdapter) IsConnected() bool {
	return s.client.IsConnected()
}
