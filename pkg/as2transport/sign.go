package as2transport

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/emersion/go-message"
	"go.mozilla.org/pkcs7"
)

// buildBodyPart renders the AS2 message body as a MIME entity: body bytes
// with the configured content type and transfer encoding, both set as
// explicit header overrides.
func buildBodyPart(body []byte, mimeType, contentTransferEncoding string) (*message.Entity, error) {
	header := message.Header{}
	header.Set("Content-Type", mimeType)
	header.Set("Content-Transfer-Encoding", contentTransferEncoding)

	entity, err := message.New(header, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("as2transport: build body part: %w", err)
	}
	return entity, nil
}

// buildTypedBodyPart attaches body as typed binary content: only
// Content-Type is set, leaving Content-Transfer-Encoding for the MIME
// layer to pick, mirroring a DataHandler-backed attachment rather than an
// explicit string body.
func buildTypedBodyPart(body []byte, mimeType string) (*message.Entity, error) {
	header := message.Header{}
	header.Set("Content-Type", mimeType)

	entity, err := message.New(header, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("as2transport: build typed body part: %w", err)
	}
	return entity, nil
}

// digestOID maps a SigningAlgorithm to the PKCS#7 digest algorithm OID.
func digestOID(alg SigningAlgorithm) asn1.ObjectIdentifier {
	if alg == SHA1 {
		return pkcs7.OIDDigestAlgorithmSHA1
	}
	return pkcs7.OIDDigestAlgorithmSHA256
}

// sign produces a detached PKCS#7 signature over content, signed by
// cert/key using alg's digest.
func sign(content []byte, cert *x509.Certificate, key crypto.Signer, alg SigningAlgorithm) ([]byte, error) {
	signedData, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, fmt.Errorf("as2transport: init signed data: %w", err)
	}
	signedData.SetDigestAlgorithm(digestOID(alg))

	if err := signedData.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("as2transport: add signer: %w", err)
	}
	signedData.Detach()

	signature, err := signedData.Finish()
	if err != nil {
		return nil, fmt.Errorf("as2transport: finish signed data: %w", err)
	}
	return signature, nil
}

// verifyDetached verifies a detached PKCS#7 signature over content against
// the expected signer certificate.
func verifyDetached(signature, content []byte, expectedSigner *x509.Certificate) error {
	p7, err := pkcs7.Parse(signature)
	if err != nil {
		return fmt.Errorf("as2transport: parse pkcs7 signature: %w", err)
	}
	p7.Content = content

	if err := p7.Verify(); err != nil {
		return fmt.Errorf("as2transport: signature verification failed: %w", err)
	}

	signer := p7.GetOnlySigner()
	if signer == nil {
		return fmt.Errorf("as2transport: no signer certificate in signature")
	}
	if expectedSigner != nil && !bytes.Equal(signer.Raw, expectedSigner.Raw) {
		return fmt.Errorf("as2transport: signature was produced by an unexpected certificate")
	}
	return nil
}
