// Package smp adapts an external SMP (Service Metadata Publisher) client
// into endpoint resolution for the AS2 send pipeline. The
// SMP HTTP client itself — fetching and signature-checking the metadata
// document — is an out-of-scope external collaborator; this
// package only consumes its output (see snapbooks-app-peppol-lookup for the
// SML/SMP HTTP shape this models).
package smp

import (
	"context"
	"crypto/x509"

	"github.com/sufield/peppol-as2/pkg/peppolid"
)

// Endpoint is one entry in a Process's ServiceEndpointList, as read off the
// wire.
type Endpoint struct {
	TransportProfile peppolid.TransportProfile
	EndpointURI      string
	// Certificate is the DER-encoded X.509 certificate, possibly
	// Base64-wrapped as delivered by the SMP.
	Certificate []byte
}

// Process is one ProcessList entry: a process identifier and the
// endpoints registered for it.
type Process struct {
	ProcessID peppolid.ProcessIdentifier
	Endpoints []Endpoint
}

// ServiceInformation is the parsed ServiceMetadata/ServiceInformation
// subtree: the process list for one (participant, document type) pair.
type ServiceInformation struct {
	ProcessList []Process
}

// SignedServiceMetadata is the top-level document returned by the SMP
// client for a (receiver, docType) lookup.
type SignedServiceMetadata struct {
	ServiceInformation ServiceInformation
}

// Client is the external SMP client this package wraps. A real
// implementation fetches and signature-verifies the metadata document over
// HTTP; this module only defines the shape it consumes.
type Client interface {
	FetchServiceMetadata(ctx context.Context, receiver peppolid.ParticipantIdentifier, docType peppolid.DocumentTypeIdentifier) (*SignedServiceMetadata, error)
}

// EndpointInfo is a resolved endpoint: URL, certificate, and the transport
// profile that matched.
type EndpointInfo struct {
	URL              string
	Certificate      *x509.Certificate
	TransportProfile peppolid.TransportProfile
}
