package as2transport

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/emersion/go-message"
)

// Request is one outbound AS2 message: the serialized business payload and
// the headers the orchestrator assembled around it.
type Request struct {
	Body []byte
}

// Response is what Send always returns, even when the HTTP round trip
// itself failed: per-stage failures are surfaced as fields, not Go errors,
// so the orchestrator always has something to inspect.
type Response struct {
	HasException bool
	Exception    error

	StatusCode int
	MDN        MDN

	MICMatched        bool
	SignatureVerified bool
}

// Transport sends one AS2 request and returns the parsed, verified MDN.
type Transport struct {
	Settings Settings
	Client   *http.Client
}

// NewTransport builds a Transport with an http.Client whose dial timeout
// is ConnectTimeout and whose total-request timeout approximates
// ConnectTimeout+ReadTimeout (net/http has no separate post-connect read
// deadline primitive; this is the closest approximation without a custom
// net.Conn wrapper).
func NewTransport(settings Settings) *Transport {
	dialer := &net.Dialer{Timeout: settings.ConnectTimeout}
	return &Transport{
		Settings: settings,
		Client: &http.Client{
			Timeout: settings.ConnectTimeout + settings.ReadTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
	}
}

// Send MIME-packs body, S/MIME-signs it, POSTs it to Settings.ReceiverURL,
// and parses+verifies the MDN response.
func (t *Transport) Send(ctx context.Context, body []byte) *Response {
	resp := &Response{}

	var bodyPart *message.Entity
	var err error
	if t.Settings.UseDataHandler {
		bodyPart, err = buildTypedBodyPart(body, t.Settings.MimeType)
	} else {
		bodyPart, err = buildBodyPart(body, t.Settings.MimeType, t.Settings.ContentTransferEncoding)
	}
	if err != nil {
		resp.HasException = true
		resp.Exception = err
		return resp
	}

	var rendered bytes.Buffer
	if err := bodyPart.WriteTo(&rendered); err != nil {
		resp.HasException = true
		resp.Exception = fmt.Errorf("as2transport: render body part: %w", err)
		return resp
	}

	signature, err := sign(rendered.Bytes(), t.Settings.SignerCertificate, t.Settings.SignerKey, t.Settings.SigningAlgorithm)
	if err != nil {
		resp.HasException = true
		resp.Exception = err
		return resp
	}

	envelope, boundary, err := buildMultipartSigned(rendered.Bytes(), signature, t.Settings.SigningAlgorithm)
	if err != nil {
		resp.HasException = true
		resp.Exception = err
		return resp
	}

	if t.Settings.DumpOutgoing != nil {
		t.Settings.DumpOutgoing(envelope)
	}

	mic := ComputeMIC(rendered.Bytes(), t.Settings.SigningAlgorithm)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Settings.ReceiverURL, bytes.NewReader(envelope))
	if err != nil {
		resp.HasException = true
		resp.Exception = fmt.Errorf("as2transport: build HTTP request: %w", err)
		return resp
	}
	applyRequestHeaders(httpReq, t.Settings, boundary)

	httpResp, err := t.Client.Do(httpReq)
	if err != nil {
		resp.HasException = true
		resp.Exception = fmt.Errorf("as2transport: HTTP round trip: %w", err)
		return resp
	}
	defer httpResp.Body.Close()

	resp.StatusCode = httpResp.StatusCode

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		resp.HasException = true
		resp.Exception = fmt.Errorf("as2transport: read HTTP response: %w", err)
		return resp
	}
	if t.Settings.DumpIncoming != nil {
		t.Settings.DumpIncoming(respBody)
	}

	mdn, verified, err := parseAndVerifyMDN(respBody, t.Settings.ReceiverCertificate)
	if err != nil {
		resp.HasException = true
		resp.Exception = err
		return resp
	}
	resp.MDN = mdn
	resp.SignatureVerified = verified
	resp.MICMatched = mdn.ReceivedContentMIC == mic

	return resp
}

// buildMultipartSigned wraps signedBody and its detached signature in a
// multipart/signed envelope per RFC 1847, returned with the boundary it
// used so the caller can set Content-Type.
func buildMultipartSigned(signedBody, signature []byte, alg SigningAlgorithm) ([]byte, string, error) {
	bodyHeader := message.Header{}
	bodyHeader.Set("Content-Type", "application/octet-stream")
	bodyEntity, err := message.New(bodyHeader, bytes.NewReader(signedBody))
	if err != nil {
		return nil, "", fmt.Errorf("as2transport: rebuild signed body part: %w", err)
	}

	sigHeader := message.Header{}
	sigHeader.Set("Content-Type", `application/pkcs7-signature; name="smime.p7s"`)
	sigHeader.Set("Content-Transfer-Encoding", "base64")
	sigHeader.Set("Content-Disposition", `attachment; filename="smime.p7s"`)
	sigEntity, err := message.New(sigHeader, bytes.NewReader(signature))
	if err != nil {
		return nil, "", fmt.Errorf("as2transport: build signature part: %w", err)
	}

	topHeader := message.Header{}
	topHeader.Set("Content-Type", fmt.Sprintf(`multipart/signed; protocol="application/pkcs7-signature"; micalg="%s"`, alg.MicAlgName()))
	top, err := message.NewMultipart(topHeader, []*message.Entity{bodyEntity, sigEntity})
	if err != nil {
		return nil, "", fmt.Errorf("as2transport: build multipart/signed envelope: %w", err)
	}

	var out bytes.Buffer
	if err := top.WriteTo(&out); err != nil {
		return nil, "", fmt.Errorf("as2transport: render envelope: %w", err)
	}

	_, params, _ := top.Header.ContentType()
	return out.Bytes(), params["boundary"], nil
}

func applyRequestHeaders(req *http.Request, settings Settings, boundary string) {
	req.Header.Set("AS2-Version", "1.2")
	req.Header.Set("AS2-From", settings.SenderAS2ID)
	req.Header.Set("AS2-To", settings.ReceiverAS2ID)
	req.Header.Set("Subject", settings.Subject)
	req.Header.Set("Message-ID", settings.MessageID)
	req.Header.Set("Disposition-Notification-To", "dummy")
	req.Header.Set("Disposition-Notification-Options", DispositionNotificationOptions(settings.SigningAlgorithm))
	req.Header.Set("Content-Type", fmt.Sprintf(`multipart/signed; protocol="application/pkcs7-signature"; micalg="%s"; boundary="%s"`, settings.SigningAlgorithm.MicAlgName(), boundary))
}

// parseAndVerifyMDN parses raw as a multipart/signed MDN envelope, verifies
// its detached signature against receiverCert, and extracts the typed MDN
// fields from the report part regardless of verification outcome — a
// verification failure is reported via the returned bool, not an error,
// so the orchestrator still sees the disposition.
func parseAndVerifyMDN(raw []byte, receiverCert *x509.Certificate) (MDN, bool, error) {
	top, err := message.Read(bytes.NewReader(raw))
	if err != nil {
		return MDN{}, false, fmt.Errorf("as2transport: parse MDN MIME envelope: %w", err)
	}

	reportBytes, signature, err := splitSignedEnvelope(top)
	if err != nil {
		return MDN{}, false, err
	}

	verified := verifyDetached(signature, reportBytes, receiverCert) == nil

	reportEntity, err := message.Read(bytes.NewReader(reportBytes))
	if err != nil {
		return MDN{}, verified, fmt.Errorf("as2transport: parse MDN report part: %w", err)
	}

	mdn, err := parseMDN(reportEntity)
	if err != nil {
		return MDN{}, verified, err
	}
	return mdn, verified, nil
}

// splitSignedEnvelope splits a multipart/signed entity into its signed
// content (the body bytes of the first part, which is what
// buildMultipartSigned wrapped) and its detached signature.
func splitSignedEnvelope(top *message.Entity) (content []byte, signature []byte, err error) {
	mr := top.MultipartReader()
	if mr == nil {
		return nil, nil, fmt.Errorf("as2transport: MDN response is not multipart/signed")
	}

	contentPart, err := mr.NextPart()
	if err != nil {
		return nil, nil, fmt.Errorf("as2transport: read signed content part: %w", err)
	}
	contentBytes, err := io.ReadAll(contentPart.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("as2transport: read signed content part body: %w", err)
	}

	sigPart, err := mr.NextPart()
	if err != nil {
		return nil, nil, fmt.Errorf("as2transport: read signature part: %w", err)
	}
	sigBytes, err := io.ReadAll(sigPart.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("as2transport: read signature bytes: %w", err)
	}

	return contentBytes, sigBytes, nil
}
