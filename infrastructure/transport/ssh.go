package transport

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/carlosrabelo/macscan/domain/entities"
)

// sshChunk is one read from the remote shell
type sshChunk struct {
	data []byte
	err  error
}

// SSHClient manages an SSH session with a switch
type SSHClient struct {
	config       entities.SwitchConfig
	client       *ssh.Client
	session      *ssh.Session
	stdin        io.WriteCloser
	output       chan sshChunk
	done         chan struct{}
	timeout      time.Duration
	authSequence []entities.AuthPrompt
	log          *logrus.Entry
}

// NewSSHClient creates a new SSH client with the given configuration
func NewSSHClient(cfg entities.SwitchConfig) *SSHClient {
	return &SSHClient{
		config:  cfg,
		timeout: DefaultTimeout,
		log:     logrus.WithFields(logrus.Fields{"device": cfg.DeviceID(), "transport": "ssh"}),
	}
}

// SetAuthSequence records the driver prompts. Login happens in the SSH
// handshake, so only the commands sent at the privileged prompt are replayed.
func (sc *SSHClient) SetAuthSequence(prompts []entities.AuthPrompt) {
	sc.authSequence = prompts
}

func (sc *SSHClient) privilegedCommands() []string {
	var cmds []string
	for _, p := range sc.authSequence {
		if p.WaitFor == PromptPrivileged && p.SendCmd != "" {
			cmds = append(cmds, p.SendCmd)
		}
	}
	if len(cmds) == 0 {
		cmds = []string{TerminalLengthCmd}
	}
	return cmds
}

func (sc *SSHClient) Connect() error {
	if sc.IsConnected() {
		return nil
	}
	addr := net.JoinHostPort(sc.config.Target, strconv.Itoa(portOrDefault(sc.config.Port, 22)))
	sshConfig := &ssh.ClientConfig{
		User:            sc.config.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(sc.config.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         DefaultTimeout,
	}

	dialer := &net.Dialer{Timeout: DefaultTimeout}
	rawConn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s via SSH: %w", sc.config.Target, err)
	}

	// the deadline only bounds the handshake; the ssh mux owns the conn afterwards
	_ = rawConn.SetDeadline(time.Now().Add(DefaultTimeout))
	clientConn, chans, reqs, err := ssh.NewClientConn(rawConn, addr, sshConfig)
	if err != nil {
		rawConn.Close()
		return fmt.Errorf("failed to establish SSH client connection to %s: %w", sc.config.Target, err)
	}
	_ = rawConn.SetDeadline(time.Time{})
	client := ssh.NewClient(clientConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create SSH session for %s: %w", sc.config.Target, err)
	}

	fail := func(format string, err error) error {
		session.Close()
		client.Close()
		return fmt.Errorf(format, sc.config.Target, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 9600,
		ssh.TTY_OP_OSPEED: 9600,
	}
	if err := session.RequestPty("vt100", 80, 40, modes); err != nil {
		return fail("failed to request PTY for %s: %w", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		return fail("failed to get stdin pipe for %s: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return fail("failed to get stdout pipe for %s: %w", err)
	}
	if err := session.Shell(); err != nil {
		return fail("failed to start shell for %s: %w", err)
	}

	sc.client = client
	sc.session = session
	sc.stdin = stdin
	sc.output = make(chan sshChunk, 16)
	sc.done = make(chan struct{})
	go pumpOutput(stdout, sc.output, sc.done)
	sc.log.Debugf("Connected to %s", addr)

	if err := sc.enterPrivileged(); err != nil {
		sc.Disconnect()
		return err
	}
	return nil
}

func (sc *SSHClient) enterPrivileged() error {
	initial, err := sc.readUntilAny([]string{PromptPrivileged, PromptEnable}, sc.timeout)
	if err != nil {
		return err
	}

	if !strings.Contains(initial, PromptPrivileged) {
		sc.log.Debug("Elevating to privileged mode")
		if err := sc.send("enable\n"); err != nil {
			return fmt.Errorf("failed to send enable command to %s: %w", sc.config.Target, err)
		}
		if _, err := sc.readUntil(PromptPassword, sc.timeout); err != nil {
			return err
		}
		if err := sc.send(sc.config.EnablePassword + "\n"); err != nil {
			return fmt.Errorf("failed to send enable password to %s: %w", sc.config.Target, err)
		}
		if _, err := sc.readUntil(PromptPrivileged, sc.timeout); err != nil {
			return err
		}
	}

	for _, cmd := range sc.privilegedCommands() {
		if err := sc.send(cmd); err != nil {
			return fmt.Errorf("failed to send %q to %s: %w", strings.TrimSpace(cmd), sc.config.Target, err)
		}
		if _, err := sc.readUntil(PromptPrivileged, sc.timeout); err != nil {
			return err
		}
	}
	return nil
}

func (sc *SSHClient) Disconnect() {
	if sc.session != nil {
		sc.session.Close()
		sc.session = nil
	}
	if sc.client != nil {
		sc.client.Close()
		sc.client = nil
	}
	if sc.done != nil {
		close(sc.done)
		sc.done = nil
	}
	sc.stdin = nil
	sc.output = nil
	sc.log.Debug("Disconnected")
}

func (sc *SSHClient) IsConnected() bool {
	return sc.session != nil && sc.client != nil
}

func (sc *SSHClient) ExecuteCommand(cmd string) (string, error) {
	if !sc.IsConnected() {
		return "", fmt.Errorf("not connected to %s", sc.config.Target)
	}
	sc.log.Debugf("Executing: %s", cmd)
	if err := sc.send(cmd + "\n"); err != nil {
		sc.Disconnect()
		return "", fmt.Errorf("failed to send command %s: %w", cmd, err)
	}
	output, err := sc.readUntil(PromptPrivileged, sc.timeout)
	if err != nil {
		return "", fmt.Errorf("error executing %s: %w", cmd, err)
	}
	return stripEchoAndPrompt(output), nil
}

func (sc *SSHClient) send(data string) error {
	_, err := sc.stdin.Write([]byte(data))
	return err
}

func (sc *SSHClient) readUntil(pattern string, timeout time.Duration) (string, error) {
	return sc.readUntilAny([]string{pattern}, timeout)
}

// readUntilAny collects shell output until one of patterns shows up. A
// timeout leaves the session open; a read error closes it.
func (sc *SSHClient) readUntilAny(patterns []string, timeout time.Duration) (string, error) {
	var output strings.Builder
	output.Grow(BufferSize)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case chunk := <-sc.output:
			if chunk.err != nil {
				sc.Disconnect()
				return output.String(), fmt.Errorf("read error: %w", chunk.err)
			}
			output.Write(chunk.data)
			if sc.config.IsRawOutputEnabled() {
				sc.log.Infof("Read: %s", string(chunk.data))
			}
			if containsAny(output.String(), patterns) {
				return output.String(), nil
			}
		case <-timer.C:
			return output.String(), fmt.Errorf("timeout waiting for prompts %s", strings.Join(patterns, ", "))
		}
	}
}

// pumpOutput forwards remote output to out until a read fails or done closes
func pumpOutput(r io.Reader, out chan<- sshChunk, done <-chan struct{}) {
	buffer := make([]byte, BufferSize)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			select {
			case out <- sshChunk{data: append([]byte(nil), buffer[:n]...)}:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case out <- sshChunk{err: err}:
			case <-done:
			}
			return
		}
	}
}

func containsAny(text string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}
