package models

import (
	"fmt"
)

// DefaultSubmitterRole is assigned to appended submitters with no explicit role.
const DefaultSubmitterRole = "Signer"

// Submitter is one recipient of a signature request.
type Submitter struct {
	Email string `bson:"email" json:"email"`
	Role  string `bson:"role" json:"role"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
}

// EmailMessage is the subject/body pair sent with a signature request.
// Both fields may contain {token} placeholders.
type EmailMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendValidationError reports a submitter list that cannot be dispatched.
// It is always detected before any network call.
type SendValidationError struct {
	Index  int
	Reason string
}

func (e *SendValidationError) Error() string {
	return fmt.Sprintf("submitter %d: %s", e.Index, e.Reason)
}

// SubmitterList is an ordered sequence of submitters. Order is signing
// order and is preserved end to end. A list exposed to the send flow always
// has at least one entry.
type SubmitterList struct {
	entries []Submitter
}

// NewSubmitterList creates a list seeded with one blank signer, matching
// the state a fresh send form starts from.
func NewSubmitterList() *SubmitterList {
	return &SubmitterList{entries: []Submitter{{Role: DefaultSubmitterRole}}}
}

// SubmitterListFrom builds a list from existing entries, filling in the
// default role where missing.
func SubmitterListFrom(entries []Submitter) *SubmitterList {
	l := &SubmitterList{entries: make([]Submitter, len(entries))}
	copy(l.entries, entries)
	for i := range l.entries {
		if l.entries[i].Role == "" {
			l.entries[i].Role = DefaultSubmitterRole
		}
	}
	return l
}

// Append adds a submitter at the end of the signing order.
func (l *SubmitterList) Append(s Submitter) {
	if s.Role == "" {
		s.Role = DefaultSubmitterRole
	}
	l.entries = append(l.entries, s)
}

// RemoveAt removes the submitter at index. Removing the last remaining
// entry is refused: the send flow requires at least one recipient.
func (l *SubmitterList) RemoveAt(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("submitter index %d out of range", index)
	}
	if len(l.entries) == 1 {
		return fmt.Errorf("cannot remove the last remaining submitter")
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return nil
}

// UpdateAt replaces a single field of the submitter at index.
func (l *SubmitterList) UpdateAt(index int, field, value string) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("submitter index %d out of range", index)
	}
	switch field {
	case "email":
		l.entries[index].Email = value
	case "role":
		l.entries[index].Role = value
	case "name":
		l.entries[index].Name = value
	default:
		return fmt.Errorf("unknown submitter field %q", field)
	}
	return nil
}

// Len returns the number of submitters.
func (l *SubmitterList) Len() int {
	return len(l.entries)
}

// Entries returns the submitters in signing order. The returned slice is a
// copy; mutating it does not affect the list.
func (l *SubmitterList) Entries() []Submitter {
	out := make([]Submitter, len(l.entries))
	copy(out, l.entries)
	return out
}

// Validate checks the list is dispatchable: every entry needs a non-empty
// email. Returns a SendValidationError naming the first offending entry.
func (l *SubmitterList) Validate() error {
	if len(l.entries) == 0 {
		return &SendValidationError{Index: 0, Reason: "at least one submitter is required"}
	}
	for i, s := range l.entries {
		if s.Email == "" {
			return &SendValidationError{Index: i, Reason: "email is required"}
		}
	}
	return nil
}
