// Package as2client is the builder/orchestrator that drives one Peppol AS2
// send end to end: SMP resolution, default derivation,
// certificate checking, payload validation, SBD construction, and the
// synchronous transport round trip. It is exposed as a plain configuration
// record plus a handful of handler interfaces — not a deep fluent builder
// with inheritance hooks — so extension is by
// composition, not subclassing.
package as2client

import (
	"context"
	"crypto/x509"
	"time"

	"github.com/beevik/etree"

	"github.com/sufield/peppol-as2/pkg/as2transport"
	"github.com/sufield/peppol-as2/pkg/certutil"
	"github.com/sufield/peppol-as2/pkg/handlers"
	"github.com/sufield/peppol-as2/pkg/keystore"
	"github.com/sufield/peppol-as2/pkg/peppolid"
	"github.com/sufield/peppol-as2/pkg/smp"
	"github.com/sufield/peppol-as2/pkg/validation"
)

// Config is every parameter one send needs. The key-store and
// business-document requirements are documented on those fields; optional
// fields note their default in a comment.
type Config struct {
	// Key-store: exactly one of KeyStoreFile or KeyStoreBytes must be set.
	// Both are loaded as a password-protected PKCS#12 container; if
	// KeyStore is already set, loading is skipped and KeyStore is used
	// as-is.
	KeyStoreFile              string
	KeyStoreBytes             []byte
	KeyStorePassword          string
	SaveKeyStoreChangesToFile bool
	KeyStore                  *keystore.Store

	AS2Subject string // default "Peppol AS2 message"

	SenderAS2ID    string
	SenderEmail    string
	SenderKeyAlias string

	ReceiverAS2ID       string
	ReceiverKeyAlias    string // default: copied from ReceiverAS2ID
	ReceiverURL         string
	ReceiverCertificate *x509.Certificate

	SigningAlgorithm as2transport.SigningAlgorithm
	MessageIDFormat  string // default defaultMessageIDFormat

	ConnectTimeout time.Duration // default 30s
	ReadTimeout    time.Duration // default 60s

	SenderPeppolID   peppolid.ParticipantIdentifier
	ReceiverPeppolID peppolid.ParticipantIdentifier
	DocumentType     peppolid.DocumentTypeIdentifier
	Process          peppolid.ProcessIdentifier

	// Business document: exactly one of BusinessDocumentBytes or
	// BusinessDocumentElement must be set.
	BusinessDocumentBytes   []byte
	BusinessDocumentElement *etree.Element

	ValidationRuleSetID  string
	ValidationRegistry   *validation.Registry
	SBDHNamespaceContext map[string]string
	SBDHBytesObserver    func([]byte)

	ContentTransferEncoding string // default "binary"
	MimeType                string // default "application/xml"

	OutgoingDumpHook func([]byte)
	IncomingDumpHook func([]byte)

	// UseDataHandler selects how the business document is attached to the
	// signed MIME body part: true attaches it as typed binary content and
	// lets the MIME layer pick the encoding; false writes it as an
	// explicit UTF-8 string body with MimeType set as an explicit
	// Content-Type override. Default false.
	UseDataHandler bool

	// TransportProfilePreference is the SMP endpoint-selection order
	// (default peppolid.DefaultTransportProfileOrder()).
	TransportProfilePreference []peppolid.TransportProfile

	SMPClient        smp.Client
	TransportFactory func(as2transport.Settings) Transport

	MessageHandler                handlers.MessageHandler
	CertificateCheckResultHandler handlers.CertificateCheckResultHandler
	ValidationResultHandler       validation.ResultHandler

	TrustStore       *certutil.TrustStore
	RevocationPolicy certutil.Policy
}

// Transport is the seam SendSynchronous drives for the actual wire
// exchange; as2transport.Transport implements it. Modeled as an interface
// so a TransportFactory can be swapped for tests.
type Transport interface {
	Send(ctx context.Context, body []byte) *as2transport.Response
}
