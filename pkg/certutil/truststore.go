package certutil

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// TrustStore holds the Peppol trust anchors (CA certificates) an Access
// Point certificate must chain to. It is explicit, loadable configuration,
// not ambient/global state.
type TrustStore struct {
	roots *x509.CertPool
	certs []*x509.Certificate
}

// NewTrustStore builds an empty trust store; use AddPEM/AddCertificate to
// populate it.
func NewTrustStore() *TrustStore {
	return &TrustStore{roots: x509.NewCertPool()}
}

// AddPEM parses one or more PEM-encoded CA certificates from data and adds
// them as trust anchors.
func (ts *TrustStore) AddPEM(data []byte) error {
	rest := data
	added := 0
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("certutil: parse trust anchor: %w", err)
		}
		ts.AddCertificate(cert)
		added++
	}
	if added == 0 {
		return fmt.Errorf("certutil: no PEM CERTIFICATE blocks found")
	}
	return nil
}

// AddCertificate adds a single parsed certificate as a trust anchor.
func (ts *TrustStore) AddCertificate(cert *x509.Certificate) {
	ts.roots.AddCert(cert)
	ts.certs = append(ts.certs, cert)
}

// Pool returns the underlying *x509.CertPool suitable for x509.VerifyOptions.Roots.
func (ts *TrustStore) Pool() *x509.CertPool {
	return ts.roots
}

// Certificates returns the trust anchors added so far.
func (ts *TrustStore) Certificates() []*x509.Certificate {
	return ts.certs
}

// Empty reports whether no trust anchors have been loaded.
func (ts *TrustStore) Empty() bool {
	return len(ts.certs) == 0
}
