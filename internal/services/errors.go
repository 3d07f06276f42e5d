package services

import "errors"

var (
	// ErrTemplateNotFound is returned when no template exists for the given ID.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNotTemplateOwner is returned when the requester does not own the template.
	ErrNotTemplateOwner = errors.New("template not owned by requester")
	// ErrNoPendingDraft is returned by commit/discard when no draft is awaiting confirmation.
	ErrNoPendingDraft = errors.New("no pending template draft")
	// ErrDraftSuperseded is returned when a newer builder save replaced the draft mid-flight.
	ErrDraftSuperseded = errors.New("draft superseded by a newer builder save")
	// ErrAccountNotFound is returned when no account exists for the given ID.
	ErrAccountNotFound = errors.New("account not found")
)
