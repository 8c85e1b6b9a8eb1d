package domain

import "time"

// Participant is an enrolled survey recipient. Owned by the administrative
// subsystem; the core reads it and never mutates it.
type Participant struct {
	ID          string
	Name        string
	PhoneNumber string
	IsActive    bool
	CreatedAt   time.Time
}

// DisplayName returns the name used in outbound greetings.
func (p Participant) DisplayName() string {
	if p.Name == "" {
		return "there"
	}
	return p.Name
}
