// Package certutil provides certificate primitives for the send/receive
// pipeline: extracting the Subject Common Name from an X.509 certificate,
// and checking an Access Point certificate's validity window and
// trust-chain against a configured Peppol trust list.
//
// Certificate parsing and chain verification are done with crypto/x509
// directly: no third-party library wraps generic X.509 trust-list
// verification without also pulling in an unrelated workload-identity
// stack.
package certutil

import (
	"crypto/x509"
	"errors"
	"fmt"
)

// ErrNoCommonName is returned by SubjectCN when the certificate's Subject DN
// carries no CommonName attribute.
var ErrNoCommonName = errors.New("certutil: certificate subject has no common name")

// CertificateParseError wraps a failure to extract data from a certificate.
type CertificateParseError struct {
	Cause error
}

func (e *CertificateParseError) Error() string {
	return fmt.Sprintf("certutil: certificate parse error: %v", e.Cause)
}

func (e *CertificateParseError) Unwrap() error { return e.Cause }

// SubjectCN returns the Subject Common Name of cert, or a
// *CertificateParseError wrapping ErrNoCommonName if it has none.
func SubjectCN(cert *x509.Certificate) (string, error) {
	if cert == nil {
		return "", &CertificateParseError{Cause: errors.New("certutil: nil certificate")}
	}
	if cert.Subject.CommonName == "" {
		return "", &CertificateParseError{Cause: ErrNoCommonName}
	}
	return cert.Subject.CommonName, nil
}
