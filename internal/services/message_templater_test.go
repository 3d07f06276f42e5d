package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jayme2002/docusave/internal/models"
)

func TestEnsureSigningLink_AppendsWhenMissing(t *testing.T) {
	body := "Please review the attached document.\n\nThanks"
	out := EnsureSigningLink(body)
	assert.Contains(t, out, SigningLinkToken)
	assert.True(t, strings.HasPrefix(out, body))
}

func TestEnsureSigningLink_Idempotent(t *testing.T) {
	body := "Sign here: {submitter.link}\nThanks"
	once := EnsureSigningLink(body)
	assert.Equal(t, body, once)
	// Appending twice never happens: placeholder count is stable.
	twice := EnsureSigningLink(once)
	assert.Equal(t, 1, strings.Count(twice, SigningLinkToken))

	appended := EnsureSigningLink("no link here")
	assert.Equal(t, 1, strings.Count(EnsureSigningLink(appended), SigningLinkToken))
}

func TestRenderMessage_SubstitutesKnownPlaceholders(t *testing.T) {
	msg := models.EmailMessage{
		Subject: "Please sign {template.name}",
		Body:    "You have been invited to sign the \"{template.name}\".\n\n[Review and Sign]({submitter.link})\n\nThanks,\n{account.name}",
	}
	out := RenderMessage(msg, map[string]string{
		"template.name": "NDA v2",
		"account.name":  "Acme Legal",
	})
	assert.Equal(t, "Please sign NDA v2", out.Subject)
	assert.Contains(t, out.Body, "invited to sign the \"NDA v2\"")
	assert.Contains(t, out.Body, "Thanks,\nAcme Legal")
	// Per-submitter token survives for the signing service to fill in.
	assert.Contains(t, out.Body, SigningLinkToken)
}

func TestRenderMessage_UnrecognizedPlaceholdersUntouched(t *testing.T) {
	msg := models.EmailMessage{
		Subject: "Re: {template.name}",
		Body:    "Custom {not.a.token} stays, {submitter.link} stays.",
	}
	out := RenderMessage(msg, map[string]string{"template.name": "Lease"})
	assert.Contains(t, out.Body, "{not.a.token}")
	assert.Contains(t, out.Body, SigningLinkToken)
}

func TestRenderMessage_EmptySubjectDefaults(t *testing.T) {
	out := RenderMessage(models.EmailMessage{Subject: "", Body: "x {submitter.link}"}, map[string]string{
		"template.name": "NDA v2",
	})
	assert.Equal(t, "Please sign NDA v2", out.Subject)
}

func TestRenderMessage_BodyGetsLinkBeforeSubstitution(t *testing.T) {
	out := RenderMessage(models.EmailMessage{Subject: "s", Body: "user removed the link"}, nil)
	assert.Equal(t, 1, strings.Count(out.Body, SigningLinkToken))
}
