package smp

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sufield/peppol-as2/pkg/peppolid"
)

// ErrNoEndpoint means the SMP client returned no metadata for the
// (receiver, docType) pair, or none of its endpoints matched the requested
// process and any preferred transport profile.
var ErrNoEndpoint = errors.New("smp: no matching endpoint")

// LookupError wraps a network or parse failure from the SMP client
//.
type LookupError struct {
	Cause error
}

func (e *LookupError) Error() string { return fmt.Sprintf("smp: lookup failed: %v", e.Cause) }
func (e *LookupError) Unwrap() error { return e.Cause }

// Resolver walks signed service metadata by ordered transport-profile
// preference to find the endpoint for a (receiver, docType, process) pair
//.
type Resolver struct {
	Client Client

	// SelectedProfileObserver, if set, is invoked with the transport
	// profile that matched once resolution succeeds, so the caller can
	// adjust its signing algorithm.
	SelectedProfileObserver func(peppolid.TransportProfile)
}

// NewResolver builds a Resolver around client.
func NewResolver(client Client) *Resolver {
	return &Resolver{Client: client}
}

// Resolve fetches service metadata for (receiver, docType) and returns the
// first endpoint, by preferredProfiles order, matching process and a
// profile in that list. Ties within a profile resolve by document order.
func (r *Resolver) Resolve(ctx context.Context, receiver peppolid.ParticipantIdentifier, docType peppolid.DocumentTypeIdentifier, process peppolid.ProcessIdentifier, preferredProfiles []peppolid.TransportProfile) (EndpointInfo, error) {
	metadata, err := r.Client.FetchServiceMetadata(ctx, receiver, docType)
	if err != nil {
		return EndpointInfo{}, &LookupError{Cause: err}
	}
	if metadata == nil {
		return EndpointInfo{}, ErrNoEndpoint
	}

	for _, profile := range preferredProfiles {
		for _, proc := range metadata.ServiceInformation.ProcessList {
			if !proc.ProcessID.Equals(process.Identifier) {
				continue
			}
			for _, ep := range proc.Endpoints {
				if !ep.TransportProfile.Equals(profile) {
					continue
				}
				cert, err := parseEndpointCertificate(ep.Certificate)
				if err != nil {
					return EndpointInfo{}, &LookupError{Cause: fmt.Errorf("parse endpoint certificate: %w", err)}
				}
				info := EndpointInfo{
					URL:              ep.EndpointURI,
					Certificate:      cert,
					TransportProfile: profile,
				}
				if r.SelectedProfileObserver != nil {
					r.SelectedProfileObserver(profile)
				}
				return info, nil
			}
		}
	}

	return EndpointInfo{}, ErrNoEndpoint
}

// parseEndpointCertificate accepts either raw DER bytes or a Base64-wrapped
// DER certificate, as SMPs differ in how they embed it.
func parseEndpointCertificate(raw []byte) (*x509.Certificate, error) {
	der := raw
	if cert, err := x509.ParseCertificate(der); err == nil {
		return cert, nil
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(raw)))
	n, err := base64.StdEncoding.Decode(decoded, raw)
	if err != nil {
		return nil, fmt.Errorf("certificate is neither valid DER nor base64-wrapped DER: %w", err)
	}
	return x509.ParseCertificate(decoded[:n])
}
