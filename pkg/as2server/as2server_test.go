package as2server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/peppol-as2/pkg/as2transport"
	"github.com/sufield/peppol-as2/pkg/keystore"
	"github.com/sufield/peppol-as2/pkg/peppolid"
	"github.com/sufield/peppol-as2/pkg/sbd"
)

func testSelfSignedCert(t *testing.T, cn string) (*x509.Certificate, *ecdsa.PrivateKey) {
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
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func buildSignedRequest(t *testing.T, senderCert *x509.Certificate, senderKey *ecdsa.PrivateKey, docType, process string) *http.Request {
	t.Helper()

	doc := etree.NewDocument()
	invoice := doc.CreateElement("Invoice")
	invoice.CreateAttr("xmlns", "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2")

	docTypeID := peppolid.NewDefaultDocumentTypeIdentifier(docType)
	processID := peppolid.NewDefaultProcessIdentifier(process)
	built := sbd.Build(
		peppolid.NewDefaultParticipantIdentifier("9999:sender"),
		peppolid.NewDefaultParticipantIdentifier("9999:receiver"),
		docTypeID, processID, "", "", invoice,
	)
	serialized, err := sbd.Serialize(built, nil)
	require.NoError(t, err)

	bodyPart, err := as2transport.BuildBodyPart(serialized, "application/xml", "binary")
	require.NoError(t, err)
	var rendered bytes.Buffer
	require.NoError(t, bodyPart.WriteTo(&rendered))

	signature, err := as2transport.Sign(rendered.Bytes(), senderCert, senderKey, as2transport.SHA256)
	require.NoError(t, err)

	envelope, boundary, err := as2transport.BuildMultipartSigned(rendered.Bytes(), signature, as2transport.SHA256)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/as2", bytes.NewReader(envelope))
	req.Header.Set("AS2-From", "sender-id")
	req.Header.Set("AS2-To", "receiver-id")
	req.Header.Set("Message-ID", "<test-message-id>")
	req.Header.Set("Disposition-Notification-Options", as2transport.DispositionNotificationOptions(as2transport.SHA256))
	req.Header.Set("Content-Type", `multipart/signed; protocol="application/pkcs7-signature"; micalg="sha-256"; boundary="`+boundary+`"`)
	return req
}

func TestServer_Receive_AcceptsRegisteredHandler(t *testing.T) {
	senderCert, senderKey := testSelfSignedCert(t, "sender")

	partners := keystore.New()
	partners.Add("sender-id", keystore.Entry{Certificate: senderCert})

	receiverCert, receiverKey := testSelfSignedCert(t, "receiver")

	srv := New(Config{
		Receiver:                ReceiverIdentity{AS2ID: "receiver-id", Certificate: receiverCert, SignerKey: receiverKey},
		PartnerCertificates:     partners,
		DefaultSigningAlgorithm: as2transport.SHA256,
	})

	var received InboundMessage
	srv.RegisterHandler(
		peppolid.NewDefaultDocumentTypeIdentifier("invoice"),
		peppolid.NewDefaultProcessIdentifier("process"),
		HandlerFunc(func(ctx context.Context, msg InboundMessage) Disposition {
			received = msg
			return Accept()
		}),
	)

	req := buildSignedRequest(t, senderCert, senderKey, "invoice", "process")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sender-id", received.AS2From)
	assert.Equal(t, "<test-message-id>", received.MessageID)
	assert.Contains(t, rec.Body.String(), "processed")
}

func TestServer_Receive_RejectsUnregisteredDocType(t *testing.T) {
	senderCert, senderKey := testSelfSignedCert(t, "sender")

	partners := keystore.New()
	partners.Add("sender-id", keystore.Entry{Certificate: senderCert})

	receiverCert, receiverKey := testSelfSignedCert(t, "receiver")

	srv := New(Config{
		Receiver:                ReceiverIdentity{AS2ID: "receiver-id", Certificate: receiverCert, SignerKey: receiverKey},
		PartnerCertificates:     partners,
		DefaultSigningAlgorithm: as2transport.SHA256,
	})

	req := buildSignedRequest(t, senderCert, senderKey, "invoice", "process")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed")
}

func TestServer_Receive_RejectsUnknownSigner(t *testing.T) {
	senderCert, senderKey := testSelfSignedCert(t, "sender")

	partners := keystore.New() // sender-id not registered

	receiverCert, receiverKey := testSelfSignedCert(t, "receiver")

	srv := New(Config{
		Receiver:                ReceiverIdentity{AS2ID: "receiver-id", Certificate: receiverCert, SignerKey: receiverKey},
		PartnerCertificates:     partners,
		DefaultSigningAlgorithm: as2transport.SHA256,
	})
	srv.RegisterHandler(
		peppolid.NewDefaultDocumentTypeIdentifier("invoice"),
		peppolid.NewDefaultProcessIdentifier("process"),
		HandlerFunc(func(ctx context.Context, msg InboundMessage) Disposition { return Accept() }),
	)

	req := buildSignedRequest(t, senderCert, senderKey, "invoice", "process")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown sender")
}

func TestServer_Receive_FansOutToEveryRegisteredHandler(t *testing.T) {
	senderCert, senderKey := testSelfSignedCert(t, "sender")

	partners := keystore.New()
	partners.Add("sender-id", keystore.Entry{Certificate: senderCert})

	receiverCert, receiverKey := testSelfSignedCert(t, "receiver")

	srv := New(Config{
		Receiver:                ReceiverIdentity{AS2ID: "receiver-id", Certificate: receiverCert, SignerKey: receiverKey},
		PartnerCertificates:     partners,
		DefaultSigningAlgorithm: as2transport.SHA256,
	})

	var order []string
	srv.RegisterHandler(
		peppolid.NewDefaultDocumentTypeIdentifier("invoice"),
		peppolid.NewDefaultProcessIdentifier("process"),
		HandlerFunc(func(ctx context.Context, msg InboundMessage) Disposition {
			order = append(order, "first")
			return Accept()
		}),
	)
	srv.RegisterHandler(
		peppolid.NewDefaultDocumentTypeIdentifier("invoice"),
		peppolid.NewDefaultProcessIdentifier("process"),
		HandlerFunc(func(ctx context.Context, msg InboundMessage) Disposition {
			order = append(order, "second")
			return Accept()
		}),
	)

	req := buildSignedRequest(t, senderCert, senderKey, "invoice", "process")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestServer_Receive_RejectsWhenAnyHandlerRejects(t *testing.T) {
	senderCert, senderKey := testSelfSignedCert(t, "sender")

	partners := keystore.New()
	partners.Add("sender-id", keystore.Entry{Certificate: senderCert})

	receiverCert, receiverKey := testSelfSignedCert(t, "receiver")

	srv := New(Config{
		Receiver:                ReceiverIdentity{AS2ID: "receiver-id", Certificate: receiverCert, SignerKey: receiverKey},
		PartnerCertificates:     partners,
		DefaultSigningAlgorithm: as2transport.SHA256,
	})

	srv.RegisterHandler(
		peppolid.NewDefaultDocumentTypeIdentifier("invoice"),
		peppolid.NewDefaultProcessIdentifier("process"),
		HandlerFunc(func(ctx context.Context, msg InboundMessage) Disposition { return Accept() }),
	)
	srv.RegisterHandler(
		peppolid.NewDefaultDocumentTypeIdentifier("invoice"),
		peppolid.NewDefaultProcessIdentifier("process"),
		HandlerFunc(func(ctx context.Context, msg InboundMessage) Disposition { return Reject("second handler refused") }),
	)

	req := buildSignedRequest(t, senderCert, senderKey, "invoice", "process")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "second handler refused")
}

func TestHealthz(t *testing.T) {
	srv := New(Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
