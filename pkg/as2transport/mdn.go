package as2transport

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
)

// MDN is the typed Message Disposition Notification extracted from a
// multipart/report; report-type=disposition-notification part.
type MDN struct {
	FinalRecipient     string
	OriginalMessageID  string
	Disposition        string
	ReceivedContentMIC string
}

// parseMDN reads the human-readable machine part of an MDN
// (message/disposition-notification) out of entity, which must already be
// the decoded, signature-verified report part.
func parseMDN(entity *message.Entity) (MDN, error) {
	mr := entity.MultipartReader()
	if mr == nil {
		return parseDispositionFields(entity.Body)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return MDN{}, fmt.Errorf("as2transport: read MDN multipart: %w", err)
		}

		contentType, _, _ := part.Header.ContentType()
		if contentType == "message/disposition-notification" {
			return parseDispositionFields(part.Body)
		}
	}

	return MDN{}, fmt.Errorf("as2transport: no message/disposition-notification part found")
}

// parseDispositionFields parses the RFC 8098 field:value lines of a
// disposition-notification body.
func parseDispositionFields(r io.Reader) (MDN, error) {
	header, err := readFieldLines(r)
	if err != nil {
		return MDN{}, err
	}

	mdn := MDN{
		FinalRecipient:     header["final-recipient"],
		OriginalMessageID:  header["original-message-id"],
		Disposition:        header["disposition"],
		ReceivedContentMIC: header["received-content-mic"],
	}
	return mdn, nil
}

// readFieldLines parses "key: value" lines, lower-casing keys, as used by
// RFC 8098 disposition-notification bodies. Continuation lines (leading
// whitespace) are folded onto the previous field.
func readFieldLines(r io.Reader) (map[string]string, error) {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(r)
	var currentKey string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if currentKey != "" {
				fields[currentKey] += " " + strings.TrimSpace(line)
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		currentKey = strings.ToLower(strings.TrimSpace(key))
		fields[currentKey] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("as2transport: read disposition fields: %w", err)
	}
	return fields, nil
}
