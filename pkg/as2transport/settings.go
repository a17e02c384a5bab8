// Package as2transport wraps go.mozilla.org/pkcs7 and
// github.com/emersion/go-message into the AS2 wire adapter: MIME-pack the
// outbound body, S/MIME-sign it, send it over HTTP, and parse/verify the
// synchronous MDN response.
package as2transport

import (
	"crypto"
	"crypto/x509"
	"time"
)

// SigningAlgorithm names a Peppol AS2 signing digest. AS2-v1 endpoints use
// SHA-1, AS2-v2 use SHA-256.
type SigningAlgorithm int

const (
	SHA1 SigningAlgorithm = iota
	SHA256
)

// MicAlgName is the MIC algorithm token used in Content-Type's micalg
// parameter and in the Disposition-Notification-Options header.
func (a SigningAlgorithm) MicAlgName() string {
	if a == SHA1 {
		return "sha1"
	}
	return "sha-256"
}

// Hash returns the crypto.Hash backing a.
func (a SigningAlgorithm) Hash() crypto.Hash {
	if a == SHA1 {
		return crypto.SHA1
	}
	return crypto.SHA256
}

// Settings assembles everything the transport needs for one send: key
// material, partner identity, and the derived AS2 header fields
// (partnership name, MDN disposition options, timeouts).
type Settings struct {
	SenderAS2ID    string
	SenderEmail    string
	SenderKeyAlias string

	ReceiverAS2ID       string
	ReceiverKeyAlias    string
	ReceiverURL         string
	ReceiverCertificate *x509.Certificate

	SignerCertificate *x509.Certificate
	SignerKey         crypto.Signer

	SigningAlgorithm SigningAlgorithm

	// PartnershipName is "<senderAS2Id>-<receiverAS2Id>".
	PartnershipName string

	Subject   string
	MessageID string

	ContentTransferEncoding string // default "binary"
	MimeType                string // default "application/xml"

	// UseDataHandler selects how the body part is attached: true attaches
	// it as typed binary content with Content-Transfer-Encoding left to
	// the MIME layer; false (default) sets MimeType and
	// ContentTransferEncoding as explicit header overrides.
	UseDataHandler bool

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// DumpOutgoing and DumpIncoming, if set, receive the raw wire bytes
	// once each.
	DumpOutgoing func([]byte)
	DumpIncoming func([]byte)
}

// PartnershipName derives "<senderAS2Id>-<receiverAS2Id>" from settings.
func PartnershipName(senderAS2ID, receiverAS2ID string) string {
	return senderAS2ID + "-" + receiverAS2ID
}

// DispositionNotificationOptions builds the exact
// "signed-receipt-protocol=required, pkcs7-signature; signed-receipt-micalg=required, <alg>"
// header value.
func DispositionNotificationOptions(alg SigningAlgorithm) string {
	return "signed-receipt-protocol=required, pkcs7-signature; signed-receipt-micalg=required, " + alg.MicAlgName()
}
