// Package session keeps one conversation record per chat identity.
//
// Mutations for a single identity are serialized by a keyed lock held by the
// Manager; different identities never contend. Records are always written
// whole, so a backend never observes a state without its matching data.
package session

import (
	"strings"
	"time"
)

// State names the phase of a multi-step dialogue.
type State string

const (
	StateIdle             State = "IDLE"
	StateRegisteringOrg   State = "REGISTERING_ORG"
	StateCreatingTeam     State = "CREATING_TEAM"
	StateAddingUser       State = "ADDING_USER"
	StateStandupYesterday State = "STANDUP_YESTERDAY"
	StateStandupToday     State = "STANDUP_TODAY"
	StateStandupBlockers  State = "STANDUP_BLOCKERS"
	StateUpdatingGitHub   State = "UPDATING_GITHUB"
	StateUpdatingJira     State = "UPDATING_JIRA"
)

// IsActive reports whether the state belongs to a conversation in progress.
func (s State) IsActive() bool {
	return s != StateIdle && s != ""
}

// Field is one captured conversation value.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Session is the conversation record of one identity.
type Session struct {
	Identity     string
	State        State
	Step         int
	Fields       []Field
	LastActivity time.Time
}

// New returns an idle session stamped at now.
func New(identity string, now time.Time) Session {
	return Session{Identity: identity, State: StateIdle, LastActivity: now}
}

// IsActive reports whether a conversation is in progress.
func (s Session) IsActive() bool {
	return s.State.IsActive()
}

// Get returns the value captured under key.
func (s Session) Get(key string) (string, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Put stores value under key. Existing keys keep their position.
func (s *Session) Put(key, value string) {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			s.Fields[i].Value = value
			return
		}
	}
	s.Fields = append(s.Fields, Field{Key: key, Value: value})
}

// Lines returns a multi-line value split back into its entries.
func (s Session) Lines(key string) []string {
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

// PutLines stores entries under key, one per line.
func (s *Session) PutLines(key string, lines []string) {
	s.Put(key, strings.Join(lines, "\n"))
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	out := s
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		copy(out.Fields, s.Fields)
	}
	return out
}

// Expired reports whether the session has been idle for longer than timeout.
func (s Session) Expired(now time.Time, timeout time.Duration) bool {
	return s.LastActivity.Add(timeout).Before(now)
}
