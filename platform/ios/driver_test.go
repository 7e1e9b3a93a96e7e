package ios

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/macscan/domain/entities"
)

type mockRepo struct {
	connected bool
	responses map[string]string
	err       error
	commands  []string
}

func (m *mockRepo) Connect() error {
	m.connected = true
	return nil
}

func (m *mockRepo) Disconnect() {
	m.connected = false
}

func (m *mockRepo) ExecuteCommand(cmd string) (string, error) {
	m.commands = append(m.commands, cmd)
	if m.err != nil {
		return "", m.err
	}
	return m.responses[cmd], nil
}

func (m *mockRepo) IsConnected() bool {
	return m.connected
}

func TestDriver_Detect(t *testing.T) {
	repo := &mockRepo{responses: map[string]string{
		"show version": "Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M), Version 15.0(2)SE",
	}}
	matched, err := New().Detect(repo)
	require.NoError(t, err)
	assert.True(t, matched)
	assert.True(t, repo.connected)

	repo = &mockRepo{responses: map[string]string{
		"show version": "Cisco Nexus Operating System (NX-OS) Software",
	}}
	matched, err = New().Detect(repo)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestDriver_GetMacTable(t *testing.T) {
	repo := &mockRepo{connected: true, responses: map[string]string{
		macTableCommand: "  10    0012.3456.7890    DYNAMIC     Gi0/1",
	}}
	output, err := New().GetMacTable(repo, entities.SwitchConfig{Name: "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{macTableCommand}, repo.commands)
	assert.Len(t, New().ParseMacTable(output), 1)
}

func TestDriver_GetMacTable_Errors(t *testing.T) {
	repo := &mockRepo{connected: true, err: errors.New("read error: EOF")}
	_, err := New().GetMacTable(repo, entities.SwitchConfig{})
	assert.ErrorContains(t, err, "failed to retrieve MAC table")

	repo = &mockRepo{connected: true, responses: map[string]string{
		macTableCommand: "% Invalid input detected at '^' marker.",
	}}
	_, err = New().GetMacTable(repo, entities.SwitchConfig{})
	assert.ErrorContains(t, err, "unsupported")
}

func TestDriver_GetAuthenticationSequence(t *testing.T) {
	prompts := New().GetAuthenticationSequence("admin", "secret", "enable-secret")
	require.Len(t, prompts, 6)
	assert.Equal(t, "Username:", prompts[0].WaitFor)
	assert.Equal(t, "admin\n", prompts[0].SendCmd)
	assert.Equal(t, "enable-secret\n", prompts[3].SendCmd)
	assert.Equal(t, "", prompts[5].SendCmd)
}
