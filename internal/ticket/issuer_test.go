package ticket

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_NewTicketID(t *testing.T) {
	issuer := NewIssuer()

	id1, err := issuer.NewTicketID()
	require.NoError(t, err)
	id2, err := issuer.NewTicketID()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id1, "TKT-"))
	assert.Len(t, id1, 4+32) // prefix + 16 bytes hex
	assert.NotEqual(t, id1, id2)
}

func TestIssuer_QRPayloadRoundTrip(t *testing.T) {
	issuer := NewIssuer()

	ticketID, err := issuer.NewTicketID()
	require.NoError(t, err)

	payload, err := issuer.QRPayload(ticketID)
	require.NoError(t, err)
	assert.NotEqual(t, ticketID, payload)

	resolved, err := issuer.ResolveTicketID(payload)
	require.NoError(t, err)
	assert.Equal(t, ticketID, resolved)
}

func TestIssuer_QRPayload_EmptyTicketID(t *testing.T) {
	issuer := NewIssuer()

	_, err := issuer.QRPayload("")
	assert.Error(t, err)
}

func TestIssuer_ResolveTicketID_BareID(t *testing.T) {
	issuer := NewIssuer()

	// 人工輸入裸 ticket id 也要能解析
	resolved, err := issuer.ResolveTicketID("TKT-abc123")
	require.NoError(t, err)
	assert.Equal(t, "TKT-abc123", resolved)
}
