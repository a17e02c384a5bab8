package peppolid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticipantIdentifier_URIEncoded(t *testing.T) {
	id := NewDefaultParticipantIdentifier("9999:test-receiver")
	assert.Equal(t, "iso6523-actorid-upis::9999:test-receiver", id.URIEncoded())
	assert.Equal(t, id.URIEncoded(), id.String())
}

func TestIdentifier_HasScheme(t *testing.T) {
	id := NewParticipantIdentifier("custom-scheme", "value")
	assert.True(t, HasScheme(id.Identifier, "custom-scheme"))
	assert.False(t, HasScheme(id.Identifier, DefaultParticipantScheme))
}

func TestIdentifier_Equals(t *testing.T) {
	a := NewDefaultDocumentTypeIdentifier("invoice")
	b := NewDefaultDocumentTypeIdentifier("invoice")
	c := NewDocumentTypeIdentifier("other-scheme", "invoice")

	assert.True(t, a.Equals(b.Identifier))
	assert.False(t, a.Equals(c.Identifier))
}

func TestTransportProfile_Equals(t *testing.T) {
	assert.True(t, TransportProfileAS2v1.Equals(NewTransportProfile(TransportProfileAS2v1.String())))
	assert.False(t, TransportProfileAS2v1.Equals(TransportProfileAS2v2))
}

func TestDefaultTransportProfileOrder(t *testing.T) {
	order := DefaultTransportProfileOrder()
	assert.Equal(t, []TransportProfile{TransportProfileAS2v2, TransportProfileAS2v1}, order)
}
