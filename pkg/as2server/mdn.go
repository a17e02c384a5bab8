package as2server

import (
	"bytes"
	"fmt"

	"github.com/sufield/peppol-as2/pkg/as2transport"
)

// buildMDN renders a signed multipart/signed MDN response for result: a
// message/disposition-notification report carrying the disposition, the
// original message id, and the MIC the server computed over the received
// content, signed with the receiver's own key.
func (s *Server) buildMDN(result inboundResult) ([]byte, error) {
	report := renderDispositionReport(result)

	bodyPart, err := as2transport.BuildBodyPart(report, "message/disposition-notification", "7bit")
	if err != nil {
		return nil, fmt.Errorf("as2server: build MDN report part: %w", err)
	}

	var buf bytes.Buffer
	if err := bodyPart.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("as2server: render MDN report part: %w", err)
	}
	rendered := buf.Bytes()

	if s.cfg.Receiver.SignerKey == nil || s.cfg.Receiver.Certificate == nil {
		// No receiver signing key configured: return the report unsigned,
		// useful only for local testing.
		return rendered, nil
	}

	signature, err := as2transport.Sign(rendered, s.cfg.Receiver.Certificate, s.cfg.Receiver.SignerKey, result.signingAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("as2server: sign MDN: %w", err)
	}

	envelope, _, err := as2transport.BuildMultipartSigned(rendered, signature, result.signingAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("as2server: build signed MDN envelope: %w", err)
	}
	return envelope, nil
}

func renderDispositionReport(result inboundResult) []byte {
	disposition := "automatic-action/MDN-sent-automatically; processed"
	if !result.disposition.Accepted {
		disposition = fmt.Sprintf("automatic-action/MDN-sent-automatically; failed/Error: %s", result.disposition.Reason)
	}

	report := fmt.Sprintf(
		"Reporting-UA: peppol-as2\r\n"+
			"Final-Recipient: rfc822; %s\r\n"+
			"Original-Message-ID: %s\r\n"+
			"Disposition: %s\r\n"+
			"Received-Content-MIC: %s\r\n",
		result.as2To, result.messageID, disposition, result.contentMIC,
	)
	return []byte(report)
}
