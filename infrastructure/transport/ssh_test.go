package transport

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/carlosrabelo/macscan/domain/entities"
)

const slowTableRow = "  10    0012.3456.7890    DYNAMIC     Gi0/1"

// startShellServer runs an SSH server on loopback whose shell answers
// "show mac address-table" after delay and hangs up on "exit".
func startShellServer(t *testing.T, delay time.Duration) int {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)

	serverCfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "admin" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	serverCfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSHConn(conn, serverCfg, delay)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func serveSSHConn(conn net.Conn, cfg *ssh.ServerConfig, delay time.Duration) {
	defer conn.Close()
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go func() {
			for req := range requests {
				_ = req.Reply(req.Type == "pty-req" || req.Type == "shell", nil)
			}
		}()
		go serveShell(ch, delay)
	}
}

func serveShell(ch ssh.Channel, delay time.Duration) {
	defer ch.Close()
	_, _ = io.WriteString(ch, "sw1#")
	scanner := bufio.NewScanner(ch)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "exit":
			return
		case "show mac address-table":
			time.Sleep(delay)
			_, _ = io.WriteString(ch, cmd+"\r\n"+slowTableRow+"\r\nsw1#")
		default:
			_, _ = io.WriteString(ch, cmd+"\r\nsw1#")
		}
	}
}

func loopbackConfig(port int) entities.SwitchConfig {
	return entities.SwitchConfig{
		Name:      "sw1",
		Target:    "127.0.0.1",
		Port:      port,
		Transport: "ssh",
		Username:  "admin",
		Password:  "secret",
	}
}

func TestSSHClient_SlowReplyKeepsSession(t *testing.T) {
	port := startShellServer(t, 1200*time.Millisecond)
	sc := NewSSHClient(loopbackConfig(port))
	require.NoError(t, sc.Connect())
	defer sc.Disconnect()

	out, err := sc.ExecuteCommand("show mac address-table")
	require.NoError(t, err)
	assert.Contains(t, out, "0012.3456.7890")
	assert.True(t, sc.IsConnected())

	out, err = sc.ExecuteCommand("show version")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestSSHClient_TimeoutLeavesSessionOpen(t *testing.T) {
	port := startShellServer(t, time.Second)
	sc := NewSSHClient(loopbackConfig(port))
	require.NoError(t, sc.Connect())
	defer sc.Disconnect()

	sc.timeout = 200 * time.Millisecond
	_, err := sc.ExecuteCommand("show mac address-table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for prompts")
	assert.True(t, sc.IsConnected())
}

func TestSSHClient_RemoteHangupClosesSession(t *testing.T) {
	port := startShellServer(t, 0)
	sc := NewSSHClient(loopbackConfig(port))
	require.NoError(t, sc.Connect())

	_, err := sc.ExecuteCommand("exit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read error")
	assert.False(t, sc.IsConnected())

	// a closed session can be opened again
	require.NoError(t, sc.Connect())
	defer sc.Disconnect()
	out, err := sc.ExecuteCommand("show mac address-table")
	require.NoError(t, err)
	assert.Contains(t, out, "0012.3456.7890")
}

func TestSSHClient_BadPassword(t *testing.T) {
	port := startShellServer(t, 0)
	cfg := loopbackConfig(port)
	cfg.Password = "wrong"
	sc := NewSSHClient(cfg)

	err := sc.Connect()
	require.Error(t, err)
	assert.False(t, sc.IsConnected())
}
