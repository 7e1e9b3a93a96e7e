package entities

// AuthPrompt is one step of a login dialogue
type AuthPrompt struct {
	WaitFor string // prompt to wait for
	SendCmd string // text to send, empty means only wait
}
