package as2transport

import (
	"crypto"
	"crypto/x509"

	"github.com/emersion/go-message"
)

// Sign exposes the package's detached PKCS#7 signing for callers outside
// the outbound Send path, notably an inbound server signing its own MDN
// response.
func Sign(content []byte, cert *x509.Certificate, key crypto.Signer, alg SigningAlgorithm) ([]byte, error) {
	return sign(content, cert, key, alg)
}

// VerifyDetached exposes detached PKCS#7 signature verification for an
// inbound server checking the sender's signature on a received message.
func VerifyDetached(signature, content []byte, expectedSigner *x509.Certificate) error {
	return verifyDetached(signature, content, expectedSigner)
}

// SplitSignedEnvelope exposes splitting a parsed multipart/signed entity
// into its re-rendered content bytes and detached signature bytes, for an
// inbound server receiving a signed AS2 request.
func SplitSignedEnvelope(top *message.Entity) (content, signature []byte, err error) {
	return splitSignedEnvelope(top)
}

// BuildMultipartSigned exposes building a multipart/signed envelope for an
// inbound server's outgoing, self-signed MDN.
func BuildMultipartSigned(signedBody, signature []byte, alg SigningAlgorithm) ([]byte, string, error) {
	return buildMultipartSigned(signedBody, signature, alg)
}

// BuildBodyPart exposes building a single MIME entity with the given
// content type and transfer encoding, for an inbound server building an
// MDN's report body.
func BuildBodyPart(body []byte, mimeType, contentTransferEncoding string) (*message.Entity, error) {
	return buildBodyPart(body, mimeType, contentTransferEncoding)
}
