package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/carlosrabelo/macscan/domain/entities"
)

var (
	sessions   = make(map[string]Client)
	sessionsMu sync.Mutex
)

func sessionKey(cfg entities.SwitchConfig) string {
	keyData := struct {
		Transport      string
		Target         string
		Port           int
		Username       string
		Password       string
		EnablePassword string
	}{
		Transport:      cfg.Transport,
		Target:         cfg.Target,
		Port:           cfg.Port,
		Username:       cfg.Username,
		Password:       cfg.Password,
		EnablePassword: cfg.EnablePassword,
	}
	bytes, _ := json.Marshal(keyData)
	hash := sha256.Sum256(bytes)
	return hex.EncodeToString(hash[:])
}

// Get returns the open session for the provided configuration or creates a new one
func Get(cfg entities.SwitchConfig) Client {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	key := sessionKey(cfg)
	if client, exists := sessions[key]; exists {
		return client
	}
	client := newClient(cfg)
	sessions[key] = client
	return client
}

// Release disconnects and forgets the session of one switch
func Release(cfg entities.SwitchConfig) {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	key := sessionKey(cfg)
	if client, exists := sessions[key]; exists {
		client.Disconnect()
		delete(sessions, key)
	}
}

// CloseAll releases every open session
func CloseAll() {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	for key, client := range sessions {
		client.Disconnect()
		delete(sessions, key)
	}
}

func newClient(cfg entities.SwitchConfig) Client {
	if cfg.Transport == "telnet" {
		return NewTelnetClient(cfg)
	}
	return NewSSHClient(cfg)
}
