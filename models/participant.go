package models

// A session participant.
type Participant struct {
	ID       uint32
	ClientID string
}
