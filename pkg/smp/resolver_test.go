package smp

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/peppol-as2/pkg/peppolid"
)

type stubClient struct {
	metadata *SignedServiceMetadata
	err      error
}

func (s stubClient) FetchServiceMetadata(context.Context, peppolid.ParticipantIdentifier, peppolid.DocumentTypeIdentifier) (*SignedServiceMetadata, error) {
	return s.metadata, s.err
}

func testCertDER(t *testing.T, cn string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return der
}

func TestResolver_Resolve_PrefersFirstMatchingProfile(t *testing.T) {
	process := peppolid.NewDefaultProcessIdentifier("proc1")
	v1Cert := testCertDER(t, "AS2-V1-AP")
	v2Cert := testCertDER(t, "AS2-V2-AP")

	metadata := &SignedServiceMetadata{
		ServiceInformation: ServiceInformation{
			ProcessList: []Process{
				{
					ProcessID: process,
					Endpoints: []Endpoint{
						{TransportProfile: peppolid.TransportProfileAS2v1, EndpointURI: "http://v1.example/as2", Certificate: v1Cert},
						{TransportProfile: peppolid.TransportProfileAS2v2, EndpointURI: "http://v2.example/as2", Certificate: v2Cert},
					},
				},
			},
		},
	}

	var observed peppolid.TransportProfile
	resolver := &Resolver{
		Client: stubClient{metadata: metadata},
		SelectedProfileObserver: func(p peppolid.TransportProfile) {
			observed = p
		},
	}

	info, err := resolver.Resolve(context.Background(), peppolid.NewDefaultParticipantIdentifier("9999:receiver"), peppolid.NewDefaultDocumentTypeIdentifier("invoice"), process, peppolid.DefaultTransportProfileOrder())
	require.NoError(t, err)
	assert.Equal(t, "http://v2.example/as2", info.URL)
	assert.True(t, info.TransportProfile.Equals(peppolid.TransportProfileAS2v2))
	assert.True(t, observed.Equals(peppolid.TransportProfileAS2v2))
}

func TestResolver_Resolve_FallsBackToNextProfile(t *testing.T) {
	process := peppolid.NewDefaultProcessIdentifier("proc1")
	v1Cert := testCertDER(t, "AS2-V1-AP")

	metadata := &SignedServiceMetadata{
		ServiceInformation: ServiceInformation{
			ProcessList: []Process{
				{
					ProcessID: process,
					Endpoints: []Endpoint{
						{TransportProfile: peppolid.TransportProfileAS2v1, EndpointURI: "http://v1.example/as2", Certificate: v1Cert},
					},
				},
			},
		},
	}

	resolver := NewResolver(stubClient{metadata: metadata})
	info, err := resolver.Resolve(context.Background(), peppolid.NewDefaultParticipantIdentifier("9999:receiver"), peppolid.NewDefaultDocumentTypeIdentifier("invoice"), process, peppolid.DefaultTransportProfileOrder())
	require.NoError(t, err)
	assert.True(t, info.TransportProfile.Equals(peppolid.TransportProfileAS2v1))
}

func TestResolver_Resolve_NoEndpoint(t *testing.T) {
	resolver := NewResolver(stubClient{metadata: &SignedServiceMetadata{}})
	_, err := resolver.Resolve(context.Background(), peppolid.NewDefaultParticipantIdentifier("9999:receiver"), peppolid.NewDefaultDocumentTypeIdentifier("invoice"), peppolid.NewDefaultProcessIdentifier("proc1"), peppolid.DefaultTransportProfileOrder())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestResolver_Resolve_LookupError(t *testing.T) {
	resolver := NewResolver(stubClient{err: errors.New("connection refused")})
	_, err := resolver.Resolve(context.Background(), peppolid.NewDefaultParticipantIdentifier("9999:receiver"), peppolid.NewDefaultDocumentTypeIdentifier("invoice"), peppolid.NewDefaultProcessIdentifier("proc1"), peppolid.DefaultTransportProfileOrder())
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
}

func TestResolver_Resolve_NilMetadata(t *testing.T) {
	resolver := NewResolver(stubClient{metadata: nil})
	_, err := resolver.Resolve(context.Background(), peppolid.NewDefaultParticipantIdentifier("9999:receiver"), peppolid.NewDefaultDocumentTypeIdentifier("invoice"), peppolid.NewDefaultProcessIdentifier("proc1"), peppolid.DefaultTransportProfileOrder())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
