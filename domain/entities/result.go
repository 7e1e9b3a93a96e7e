package entities

// DeviceResult is the outcome of one device in a polling round.
// Exactly one variant holds: Entries/Platform on success, Error on failure.
type DeviceResult struct {
	Entries  []CanonicalEntry
	Platform string
	Error    string
	failed   bool
}

// SuccessResult builds the success variant
func SuccessResult(entries []CanonicalEntry, platform string) DeviceResult {
	if entries == nil {
		entries = []CanonicalEntry{}
	}
	return DeviceResult{Entries: entries, Platform: platform}
}

// FailureResult builds the error variant
func FailureResult(message string) DeviceResult {
	if message == "" {
		message = "unknown error"
	}
	return DeviceResult{Error: message, failed: true}
}

// Failed reports whether this is the error variant
func (r DeviceResult) Failed() bool {
	return r.failed
}

// Empty reports a successful parse that yielded no entries
func (r DeviceResult) Empty() bool {
	return !r.failed && len(r.Entries) == 0
}
