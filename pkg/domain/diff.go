package domain

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Reset is set when the log was rewritten rather than appended to (reset or
	// import). Appended and Required then hold the whole new session.
	Reset bool `json:"reset,omitempty"`

	// Appended contains the edges added to the end of the log.
	Appended []Edge `json:"appended,omitempty"`

	// Required contains newly registered required nodes.
	Required []string `json:"required,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	// 1. Initial load or rewrite
	if oldSession == nil || !isPrefix(oldSession.Edges, newSession.Edges) || !isPrefixIDs(oldSession.Required, newSession.Required) {
		diff.Reset = oldSession != nil
		diff.Appended = newSession.Edges
		diff.Required = newSession.Required
		if !diff.Reset && diff.IsEmpty() {
			return nil
		}
		return diff
	}

	// 2. Append-only
	if len(newSession.Edges) > len(oldSession.Edges) {
		diff.Appended = newSession.Edges[len(oldSession.Edges):]
	}
	if len(newSession.Required) > len(oldSession.Required) {
		diff.Required = newSession.Required[len(oldSession.Required):]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func isPrefix(old, new []Edge) bool {
	if len(old) > len(new) {
		return false
	}
	for i := range old {
		if old[i] != new[i] {
			return false
		}
	}
	return true
}

func isPrefixIDs(old, new []string) bool {
	if len(old) > len(new) {
		return false
	}
	for i := range old {
		if old[i] != new[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return !d.Reset && len(d.Appended) == 0 && len(d.Required) == 0
}
