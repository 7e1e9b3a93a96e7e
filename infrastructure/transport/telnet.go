package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ziutek/telnet"

	"github.com/carlosrabelo/macscan/domain/entities"
)

const (
	DefaultTimeout    = 60 * time.Second
	BufferSize        = 4096
	PromptUsername    = "Username:"
	PromptPassword    = "Password:"
	PromptEnable      = ">"
	PromptPrivileged  = "#"
	TerminalLengthCmd = "terminal length 0\n"
)

// TelnetClient manages a Telnet connection to a switch
type TelnetClient struct {
	conn         *telnet.Conn
	config       entities.SwitchConfig
	authSequence []entities.AuthPrompt
	log          *logrus.Entry
}

// NewTelnetClient creates a new Telnet client with the given configuration
func NewTelnetClient(cfg entities.SwitchConfig) *TelnetClient {
	return &TelnetClient{
		config: cfg,
		log:    logrus.WithFields(logrus.Fields{"device": cfg.DeviceID(), "transport": "telnet"}),
	}
}

// SetAuthSequence configures the authentication sequence for this client
func (tc *TelnetClient) SetAuthSequence(prompts []entities.AuthPrompt) {
	tc.authSequence = prompts
}

func (tc *TelnetClient) defaultAuthSequence() []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: PromptUsername, SendCmd: tc.config.Username + "\n"},
		{WaitFor: PromptPassword, SendCmd: tc.config.Password + "\n"},
		{WaitFor: PromptEnable, SendCmd: "enable\n"},
		{WaitFor: PromptPassword, SendCmd: tc.config.EnablePassword + "\n"},
		{WaitFor: PromptPrivileged, SendCmd: TerminalLengthCmd},
		{WaitFor: PromptPrivileged, SendCmd: ""},
	}
}

// Connect establishes a Telnet connection to the switch
func (tc *TelnetClient) Connect() error {
	if tc.conn != nil {
		return nil
	}
	addr := net.JoinHostPort(tc.config.Target, strconv.Itoa(portOrDefault(tc.config.Port, 23)))
	conn, err := telnet.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", tc.config.Target, err)
	}
	tc.conn = conn
	tc.log.Debugf("Connected to %s", addr)

	prompts := tc.authSequence
	if len(prompts) == 0 {
		prompts = tc.defaultAuthSequence()
	}

	for _, p := range prompts {
		output, err := tc.readUntil(p.WaitFor, DefaultTimeout)
		if err != nil {
			tc.Disconnect()
			return fmt.Errorf("failed to wait for %s: %w, output: %s", p.WaitFor, err, output)
		}
		if p.SendCmd != "" {
			if _, err := tc.conn.Write([]byte(p.SendCmd)); err != nil {
				tc.Disconnect()
				return fmt.Errorf("failed to answer %s: %w", p.WaitFor, err)
			}
			tc.log.Debugf("Answered prompt %s", p.WaitFor)
		}
	}
	return nil
}

// readUntil reads from the Telnet connection until the specified pattern is found
func (tc *TelnetClient) readUntil(pattern string, timeout time.Duration) (string, error) {
	buffer := make([]byte, BufferSize)
	var output strings.Builder
	output.Grow(BufferSize)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		_ = tc.conn.SetReadDeadline(deadline)
		n, err := tc.conn.Read(buffer)
		if n > 0 {
			output.Write(buffer[:n])
			if tc.config.IsRawOutputEnabled() {
				tc.log.Infof("Read: %s", string(buffer[:n]))
			}
			if strings.Contains(output.String(), pattern) {
				return output.String(), nil
			}
		}
		if err != nil {
			return output.String(), fmt.Errorf("read error: %w", err)
		}
	}
	return output.String(), fmt.Errorf("timeout waiting for %s", pattern)
}

// Disconnect closes the Telnet connection
func (tc *TelnetClient) Disconnect() {
	if tc.conn != nil {
		tc.conn.Close()
		tc.log.Debug("Disconnected")
		tc.conn = nil
	}
}

// IsConnected reports whether a connection is open
func (tc *TelnetClient) IsConnected() bool {
	return tc.conn != nil
}

// ExecuteCommand sends a command to the switch and returns its output
func (tc *TelnetClient) ExecuteCommand(cmd string) (string, error) {
	if tc.conn == nil {
		return "", fmt.Errorf("not connected to %s", tc.config.Target)
	}
	tc.log.Debugf("Executing: %s", cmd)
	_ = tc.conn.SetWriteDeadline(time.Now().Add(DefaultTimeout))
	if _, err := tc.conn.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("failed to send command %s: %w", cmd, err)
	}
	output, err := tc.readUntil(PromptPrivileged, DefaultTimeout)
	if err != nil {
		return "", fmt.Errorf("error executing %s: %w", cmd, err)
	}
	return stripEchoAndPrompt(output), nil
}

// stripEchoAndPrompt drops the echoed command line and the trailing prompt line
func stripEchoAndPrompt(output string) string {
	lines := strings.Split(output, "\n")
	if len(lines) > 2 {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return ""
}

func portOrDefault(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
