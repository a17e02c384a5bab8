package as2server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/emersion/go-message"

	"github.com/sufield/peppol-as2/pkg/as2transport"
	"github.com/sufield/peppol-as2/pkg/sbd"
)

// inboundResult is everything the MDN builder needs, gathered in one pass
// over the request.
type inboundResult struct {
	disposition Disposition

	as2From   string
	as2To     string
	messageID string

	contentMIC       string
	signingAlgorithm as2transport.SigningAlgorithm
}

func (s *Server) receive(r *http.Request) inboundResult {
	as2From := r.Header.Get("AS2-From")
	as2To := r.Header.Get("AS2-To")
	messageID := r.Header.Get("Message-ID")
	algorithm := algorithmFromDispositionOptions(r.Header.Get("Disposition-Notification-Options"), s.cfg.DefaultSigningAlgorithm)

	result := inboundResult{as2From: as2From, as2To: as2To, messageID: messageID, signingAlgorithm: algorithm}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		result.disposition = Reject(fmt.Sprintf("reading request body: %v", err))
		return result
	}

	top, err := message.Read(bytes.NewReader(buildEnvelope(r.Header, rawBody)))
	if err != nil {
		result.disposition = Reject(fmt.Sprintf("parsing MIME envelope: %v", err))
		return result
	}

	content, signature, err := as2transport.SplitSignedEnvelope(top)
	if err != nil {
		result.disposition = Reject(fmt.Sprintf("splitting multipart/signed envelope: %v", err))
		return result
	}

	result.contentMIC = as2transport.ComputeMIC(content, algorithm)

	if s.cfg.PartnerCertificates != nil {
		cert, err := s.cfg.PartnerCertificates.PartnerCert(as2From)
		if err != nil {
			result.disposition = Reject(fmt.Sprintf("unknown sender %q: %v", as2From, err))
			return result
		}
		if err := as2transport.VerifyDetached(signature, content, cert); err != nil {
			result.disposition = Reject(fmt.Sprintf("signature verification failed: %v", err))
			return result
		}
	}

	bodyEntity, err := message.Read(bytes.NewReader(content))
	if err != nil {
		result.disposition = Reject(fmt.Sprintf("parsing signed body part: %v", err))
		return result
	}
	businessBytes, err := io.ReadAll(bodyEntity.Body)
	if err != nil {
		result.disposition = Reject(fmt.Sprintf("reading signed body: %v", err))
		return result
	}

	doc, err := sbd.Parse(businessBytes)
	if err != nil {
		result.disposition = Reject(fmt.Sprintf("parsing Standard Business Document: %v", err))
		return result
	}

	matched, ok := s.lookupHandlers(doc.DocType.Identifier, doc.Process.Identifier)
	if !ok {
		result.disposition = Reject(fmt.Sprintf("no handler registered for docType %s, process %s", doc.DocType.URIEncoded(), doc.Process.URIEncoded()))
		return result
	}

	inbound := InboundMessage{
		Document:  doc,
		AS2From:   as2From,
		AS2To:     as2To,
		MessageID: messageID,
	}

	var reasons []string
	for _, handler := range matched {
		d := handler.Handle(r.Context(), inbound)
		if !d.Accepted {
			reasons = append(reasons, d.Reason)
		}
	}
	if len(reasons) > 0 {
		result.disposition = Reject(strings.Join(reasons, "; "))
	} else {
		result.disposition = Accept()
	}
	return result
}

// buildEnvelope re-prepends the HTTP Content-Type header (carrying the
// multipart/signed boundary and protocol parameters) to the raw request
// body so message.Read can parse it as a single MIME entity, mirroring how
// net/http already split the header out of the wire bytes.
func buildEnvelope(header http.Header, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("Content-Type: " + header.Get("Content-Type") + "\r\n\r\n")
	buf.Write(body)
	return buf.Bytes()
}

// algorithmFromDispositionOptions reads the signed-receipt-micalg parameter
// out of a Disposition-Notification-Options header; def is used when the
// header is absent or unparsable.
func algorithmFromDispositionOptions(header string, def as2transport.SigningAlgorithm) as2transport.SigningAlgorithm {
	if strings.Contains(header, "sha-256") {
		return as2transport.SHA256
	}
	if strings.Contains(header, "sha1") {
		return as2transport.SHA1
	}
	return def
}
