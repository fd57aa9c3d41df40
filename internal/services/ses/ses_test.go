package ses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/services/proposal"
)

func TestRenderProposalEmail_Received(t *testing.T) {
	subject, html, text, err := RenderProposalEmail(proposal.EventReceived, ProposalEmail{
		RecipientName: "Nimali Perera",
		OtherName:     "Kasun Silva",
		Message:       "Would love to <connect>",
		DashboardURL:  "https://example.com/dashboard",
	})

	require.NoError(t, err)
	assert.Equal(t, "Kasun Silva is interested in your profile", subject)
	assert.Contains(t, html, "Hi Nimali Perera,")
	assert.Contains(t, html, "Would love to &lt;connect&gt;", "message must be escaped")
	assert.Contains(t, html, `href="https://example.com/dashboard"`)
	assert.Contains(t, text, "Message: Would love to <connect>")
	assert.Contains(t, text, "Open your dashboard: https://example.com/dashboard")
}

func TestRenderProposalEmail_Accepted(t *testing.T) {
	subject, html, text, err := RenderProposalEmail(proposal.EventAccepted, ProposalEmail{
		RecipientName: "Kasun Silva",
		OtherName:     "Nimali Perera",
	})

	require.NoError(t, err)
	assert.Equal(t, "Nimali Perera accepted your proposal", subject)
	assert.Contains(t, html, "Your proposal was accepted")
	assert.NotContains(t, html, "cta-button\">")
	assert.NotContains(t, text, "Message:")
}

func TestRenderProposalEmail_UnknownEvent(t *testing.T) {
	_, _, _, err := RenderProposalEmail(proposal.Event("declined"), ProposalEmail{})
	assert.Error(t, err)
}

func TestNotifyProposal_NoRecipientEmail(t *testing.T) {
	s := &Service{}
	sender := &models.Profile{FirstName: "Kasun", Email: "kasun@example.com"}
	receiver := &models.Profile{FirstName: "Nimali"}

	err := s.NotifyProposal(context.Background(), proposal.EventReceived, &models.Proposal{}, sender, receiver)
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Nimali Perera", displayName(&models.Profile{FirstName: "Nimali", LastName: "Perera"}))
	assert.Equal(t, "A member", displayName(&models.Profile{}))
}
