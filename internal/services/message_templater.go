package services

import (
	"strings"

	"github.com/Jayme2002/docusave/internal/models"
)

// SigningLinkToken is the placeholder the signing service replaces with each
// submitter's personal signing link. Every dispatched body must contain it.
const SigningLinkToken = "{submitter.link}"

// DefaultSubject is used when the user leaves the subject line empty.
const DefaultSubject = "Please sign {template.name}"

// defaultCallToAction is appended to bodies the user edited the signing link
// out of.
const defaultCallToAction = "\n\n[Review and Sign](" + SigningLinkToken + ")"

// EnsureSigningLink returns body with the signing link call-to-action
// appended when the token is missing. Bodies that already carry the token
// are returned unchanged, so the append never happens twice.
func EnsureSigningLink(body string) string {
	if strings.Contains(body, SigningLinkToken) {
		return body
	}
	return body + defaultCallToAction
}

// RenderMessage substitutes recognized {name} placeholders in the subject
// and body. Unrecognized placeholder text is left untouched. An empty
// subject falls back to DefaultSubject, and the body is guaranteed to carry
// the signing link token before substitution.
func RenderMessage(msg models.EmailMessage, vars map[string]string) models.EmailMessage {
	subject := msg.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	body := EnsureSigningLink(msg.Body)

	for key, val := range vars {
		placeholder := "{" + key + "}"
		subject = strings.ReplaceAll(subject, placeholder, val)
		body = strings.ReplaceAll(body, placeholder, val)
	}

	return models.EmailMessage{Subject: subject, Body: body}
}
